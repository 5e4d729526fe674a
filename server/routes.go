package server

import (
	"net/http"

	"github.com/jrsteele09/go-auth-client/users"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLoginStaff, ChainMiddleware(s.LoginHandler(users.ClassStaff), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLoginMember, ChainMiddleware(s.LoginHandler(users.ClassMember), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))

	// Protected API routes (require a valid access token)
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteList, ChainMiddleware(s.ListHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteView, ChainMiddleware(s.ViewHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAdd, ChainMiddleware(s.AddHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteUpdate, ChainMiddleware(s.UpdateHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteDelete, ChainMiddleware(s.DeleteHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CORS preflight for every route
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
