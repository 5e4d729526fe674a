package authapi

import "github.com/jrsteele09/go-auth-client/users"

// Endpoint path defaults
const (
	DefaultStaffLoginPath  = "/auth/login/staff"
	DefaultMemberLoginPath = "/auth/login/member"
	DefaultRefreshPath     = "/auth/refresh"
	DefaultLogoutPath      = "/auth/logout"
)

// Endpoints holds the paths of the authentication service, relative to the
// API base URL.
type Endpoints struct {
	Login   map[users.PrincipalClass]string
	Refresh string
	Logout  string
}

// DefaultEndpoints returns the standard endpoint layout.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login: map[users.PrincipalClass]string{
			users.ClassStaff:  DefaultStaffLoginPath,
			users.ClassMember: DefaultMemberLoginPath,
		},
		Refresh: DefaultRefreshPath,
		Logout:  DefaultLogoutPath,
	}
}

// IsAuthPath reports whether path is one of the authentication endpoints.
// Responses from these paths are never routed to the refresh coordinator.
func (e Endpoints) IsAuthPath(path string) bool {
	if path == e.Refresh || path == e.Logout {
		return true
	}
	for _, p := range e.Login {
		if path == p {
			return true
		}
	}
	return false
}
