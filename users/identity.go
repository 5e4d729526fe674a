package users

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the user's role as reported by the authentication service.
type Role string

const (
	RoleAdmin     Role = "admin"     // Can view and edit everything
	RoleDosen     Role = "dosen"     // Lecturer, edits assessment data, reads everything else
	RoleMahasiswa Role = "mahasiswa" // Student, read-only plus their own grades
)

// PrincipalClass selects which login endpoint a user signs in through.
type PrincipalClass string

const (
	ClassStaff  PrincipalClass = "staff"
	ClassMember PrincipalClass = "member"
)

// ParsePrincipalClass converts a user supplied class name.
func ParsePrincipalClass(s string) (PrincipalClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ClassStaff):
		return ClassStaff, nil
	case string(ClassMember):
		return ClassMember, nil
	default:
		return "", fmt.Errorf("unknown principal class %q (want staff or member)", s)
	}
}

// PrincipalClass returns the login class the role belongs to. Unknown roles
// return an empty class.
func (r Role) PrincipalClass() PrincipalClass {
	switch r {
	case RoleAdmin, RoleDosen:
		return ClassStaff
	case RoleMahasiswa:
		return ClassMember
	default:
		return ""
	}
}

// Identity is the canonical shape of the signed-in user.
type Identity struct {
	Role      Role   `json:"role,omitempty"`
	Name      string `json:"name,omitempty"`
	PrimaryID string `json:"primary_id,omitempty"` // nim for students, nip for staff; used for ownership checks
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Owns reports whether a record owned by ownerID belongs to this identity.
func (i Identity) Owns(ownerID string) bool {
	return i.PrimaryID != "" && i.PrimaryID == ownerID
}

// Field precedence for NormalizeIdentity, earliest wins.
var (
	nameKeys      = []string{"full_name", "fullName", "nama", "name", "username"}
	primaryIDKeys = []string{"nim", "nip", "id", "user_id", "username"}
	usernameKeys  = []string{"username", "user_name", "login"}
	emailKeys     = []string{"email", "mail"}
)

// NormalizeIdentity collapses the user payload variants returned by the
// authentication endpoints into one Identity. The role comes from "role",
// falling back to the first entry of "roles".
func NormalizeIdentity(raw map[string]any) Identity {
	identity := Identity{
		Name:      firstString(raw, nameKeys),
		PrimaryID: firstString(raw, primaryIDKeys),
		Username:  firstString(raw, usernameKeys),
		Email:     firstString(raw, emailKeys),
	}

	if role := firstString(raw, []string{"role"}); role != "" {
		identity.Role = Role(strings.ToLower(role))
	} else if roles, ok := raw["roles"].([]any); ok && len(roles) > 0 {
		if role, ok := roles[0].(string); ok {
			identity.Role = Role(strings.ToLower(role))
		}
	}

	return identity
}

// firstString returns the first non-empty value among keys. Numeric ids are
// formatted without a fractional part. Payloads decoded with UseNumber keep
// ids beyond float64 precision intact.
func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return fmt.Sprintf("%.0f", v)
		case int:
			return fmt.Sprintf("%d", v)
		case int64:
			return fmt.Sprintf("%d", v)
		}
	}
	return ""
}
