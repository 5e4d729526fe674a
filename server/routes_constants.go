package server

import "github.com/jrsteele09/go-auth-client/authapi"

// Route path constants
const (
	// Auth Routes. Shared with the client so both sides agree on the layout.
	RouteAuthLoginStaff  = authapi.DefaultStaffLoginPath
	RouteAuthLoginMember = authapi.DefaultMemberLoginPath
	RouteAuthRefresh     = authapi.DefaultRefreshPath
	RouteAuthLogout      = authapi.DefaultLogoutPath

	// API Routes
	RouteProfile = "/api/profile"
	RouteList    = "/list/{resource}"
	RouteView    = "/view/{resource}/{id}"
	RouteAdd     = "/add/{resource}"
	RouteUpdate  = "/update/{resource}/{id}"
	RouteDelete  = "/delete/{resource}/{id}"

	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteHealth        = "/healthz"
)
