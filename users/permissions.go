package users

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// Action is something a role may do to a resource.
type Action string

const (
	ActionView    Action = "view"
	ActionViewAll Action = "view_all" // every record, not only the caller's own
	ActionViewOwn Action = "view_own"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
)

// Resource names double as the path segment of the /list and /view routes.
type Resource string

const (
	ResourceDashboard     Resource = "dashboard"
	ResourceKurikulum     Resource = "kurikulum"
	ResourceProfilLulusan Resource = "profil-lulusan"
	ResourceCPLProdi      Resource = "cpl-prodi"
	ResourceCPLSndikti    Resource = "cpl-sndikti"
	ResourceKorelasiCPLPL Resource = "korelasi-cpl-pl"
	ResourceCPMK          Resource = "cpmk"
	ResourceBahanKajian   Resource = "bahan-kajian"
	ResourceMataKuliah    Resource = "mata-kuliah"
	ResourceKurikulumMK   Resource = "kurikulum-mk"
	ResourceCPLBK         Resource = "cpl-bk"
	ResourceCPMKMK        Resource = "cpmk-mk"
	ResourceBKMK          Resource = "bk-mk"
	ResourceRPS           Resource = "rps"
	ResourceMKPeriode     Resource = "mk-periode"
	ResourceNilaiMK       Resource = "nilai-mk"
	ResourceNilaiCPMK     Resource = "nilai-cpmk"
	ResourceBobotCPMK     Resource = "bobot-cpmk"
	ResourceUkurCPL       Resource = "ukur-cpl"
	ResourceMahasiswa     Resource = "mahasiswa"
	ResourceUsers         Resource = "users"
)

type policy map[Action][]Role

var (
	everyone  = []Role{RoleAdmin, RoleDosen, RoleMahasiswa}
	staff     = []Role{RoleAdmin, RoleDosen}
	adminOnly = []Role{RoleAdmin}

	// Curriculum data: everyone reads, admins write.
	catalogPolicy = policy{
		ActionView: everyone, ActionCreate: adminOnly, ActionEdit: adminOnly, ActionDelete: adminOnly,
	}
	// Hidden from students.
	staffViewPolicy = policy{
		ActionView: staff, ActionCreate: adminOnly, ActionEdit: adminOnly, ActionDelete: adminOnly,
	}
	// Grading data lecturers maintain.
	gradingPolicy = policy{
		ActionView: staff, ActionCreate: staff, ActionEdit: staff, ActionDelete: adminOnly,
	}
	// Grading data students may read for themselves only.
	ownedGradingPolicy = policy{
		ActionView: everyone, ActionViewAll: staff, ActionViewOwn: {RoleMahasiswa},
		ActionCreate: staff, ActionEdit: staff, ActionDelete: adminOnly,
	}
)

var permissions = map[Resource]policy{
	ResourceDashboard:     {ActionView: everyone},
	ResourceKurikulum:     catalogPolicy,
	ResourceProfilLulusan: catalogPolicy,
	ResourceCPLProdi:      catalogPolicy,
	ResourceCPLSndikti:    catalogPolicy,
	ResourceKorelasiCPLPL: catalogPolicy,
	ResourceCPMK:          catalogPolicy,
	ResourceBahanKajian:   catalogPolicy,
	ResourceMataKuliah:    catalogPolicy,
	ResourceKurikulumMK:   catalogPolicy,
	ResourceCPLBK:         catalogPolicy,
	ResourceCPMKMK:        catalogPolicy,
	ResourceBKMK:          catalogPolicy,
	ResourceRPS:           staffViewPolicy,
	ResourceMKPeriode:     staffViewPolicy,
	ResourceNilaiMK:       ownedGradingPolicy,
	ResourceNilaiCPMK:     gradingPolicy,
	ResourceBobotCPMK:     gradingPolicy,
	ResourceUkurCPL:       ownedGradingPolicy,
	ResourceMahasiswa: {
		ActionView: everyone, ActionViewAll: staff, ActionViewOwn: {RoleMahasiswa},
		ActionCreate: adminOnly, ActionEdit: adminOnly, ActionDelete: adminOnly,
	},
	ResourceUsers: {
		ActionView: adminOnly, ActionCreate: adminOnly, ActionEdit: adminOnly, ActionDelete: adminOnly,
	},
}

// Can reports whether role may perform action on resource. Unknown
// resources are denied.
func Can(role Role, resource Resource, action Action) bool {
	p, ok := permissions[resource]
	if !ok {
		log.Warn().Str("resource", string(resource)).Msg("Permission check for unknown resource")
		return false
	}
	for _, r := range p[action] {
		if r == role {
			return true
		}
	}
	return false
}

// CanViewRecord reports whether identity may read the record of resource
// owned by ownerID. Resources without ownership rules fall back to view.
func CanViewRecord(identity Identity, resource Resource, ownerID string) bool {
	if !Can(identity.Role, resource, ActionView) {
		return false
	}
	p := permissions[resource]
	if _, scoped := p[ActionViewAll]; !scoped {
		return true
	}
	if Can(identity.Role, resource, ActionViewAll) {
		return true
	}
	return Can(identity.Role, resource, ActionViewOwn) && identity.Owns(ownerID)
}

// IsKnownResource reports whether resource has a permission policy.
func IsKnownResource(resource Resource) bool {
	_, ok := permissions[resource]
	return ok
}

// AllowedActions lists, per resource, what role may do. Resources the role
// cannot view are omitted.
func AllowedActions(role Role) map[Resource][]Action {
	out := make(map[Resource][]Action)
	for resource, p := range permissions {
		if !Can(role, resource, ActionView) {
			continue
		}
		var actions []Action
		for action := range p {
			if Can(role, resource, action) {
				actions = append(actions, action)
			}
		}
		sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
		out[resource] = actions
	}
	return out
}
