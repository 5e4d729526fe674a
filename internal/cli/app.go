package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/kvstore"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/rs/zerolog/log"
)

// app is the client wired the way every command needs it: one state file,
// one cookie jar, one session store shared by the auth endpoints and the
// API client.
type app struct {
	state *kvstore.FileRepo
	auth  *authapi.Client
	store *session.Store
	api   *apiclient.Client
}

func newApp(cfg config.Config, serverURL, statePath string) (*app, error) {
	serverURL = strings.TrimRight(serverURL, "/")
	origin, err := url.Parse(serverURL)
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", serverURL)
	}

	state, err := kvstore.NewFileRepo(statePath)
	if err != nil {
		return nil, err
	}

	endpoints := authapi.DefaultEndpoints()
	if path := cfg.GetEndpointsFile(); path != "" {
		if endpoints, err = config.LoadEndpoints(path); err != nil {
			return nil, err
		}
	}

	jar, err := newPersistentJar(origin, state)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	httpClient := &http.Client{Jar: jar, Timeout: cfg.GetRequestTimeout()}

	auth, err := authapi.New(serverURL, httpClient, endpoints)
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(state, auth)
	if err != nil {
		return nil, err
	}
	if store.Restore() {
		log.Debug().Str("state", statePath).Msg("Restored session")
	}

	api, err := apiclient.NewClient(serverURL, store, auth,
		apiclient.WithHTTPClient(httpClient),
		apiclient.WithSkipRefresh(endpoints.IsAuthPath),
		apiclient.WithSessionExpiredHandler(func(err error) {
			log.Warn().Err(err).Msg("Session expired, signing out")
			store.Clear()
		}),
	)
	if err != nil {
		return nil, err
	}

	return &app{state: state, auth: auth, store: store, api: api}, nil
}
