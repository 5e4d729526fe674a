package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/jrsteele09/go-auth-client/token/keys"
	"github.com/jrsteele09/go-auth-client/token/refresh"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
)

// Repos holds the storage the development backend runs on.
type Repos struct {
	Users         users.UserRepo
	RefreshTokens refresh.Repo
}

// Server is the development backend: login per principal class, cookie
// based refresh, logout with revocation, and a few protected demo routes.
type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	users    users.UserRepo
	signer   *keys.KeyPairSigner
	creator  *jwt.Creator
	verifier *jwt.Verifier
	revoked  *jwt.RevocationList
	refresh  *refresh.Manager
	records  *recordStore
}

func New(cfg config.Config, repos Repos, signer *keys.KeyPairSigner, seeds []users.SeedUser) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if repos.Users == nil || repos.RefreshTokens == nil {
		return nil, errors.New("[Server New] user and refresh token repos are required")
	}
	if signer == nil {
		return nil, errors.New("[Server New] signer is required")
	}

	issuer := cfg.GetAPIBaseURL()
	creator, err := jwt.NewCreator(signer, cfg, issuer)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token creator: %w", err)
	}
	refreshManager, err := refresh.NewManager(repos.RefreshTokens, cfg)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create refresh manager: %w", err)
	}
	revoked := jwt.NewRevocationList()

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		users:    repos.Users,
		signer:   signer,
		creator:  creator,
		verifier: jwt.NewVerifier(signer, revoked, issuer),
		revoked:  revoked,
		refresh:  refreshManager,
		records:  newRecordStore(),
	}

	if err := s.InitialiseSystem(context.Background(), seeds); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
