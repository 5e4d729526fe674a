package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every request sent by a Client built without
// WithHTTPClient.
const DefaultTimeout = 10 * time.Second

// SessionStore is the part of session.Store the client depends on.
type SessionStore interface {
	Credential() (credential.Credential, bool)
	Epoch() uint64
	Renew(epoch uint64, grant *session.Grant) (bool, error)
}

// Refresher exchanges the ambient session proof for a new credential.
type Refresher interface {
	Refresh(ctx context.Context) (*session.Grant, error)
}

// Client issues API requests with the current credential attached and
// recovers transparently from an expired credential.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	store       SessionStore
	coordinator *Coordinator
	skipRefresh func(path string) bool
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient  *http.Client
	dispatcher  Dispatcher
	onExpired   func(error)
	skipRefresh func(path string) bool
}

// WithHTTPClient sets the transport. It should share its cookie jar with the
// Refresher so the refresh cookie set at login is sent.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithDispatcher sets how replays are started after a refresh (primarily
// for testing).
func WithDispatcher(dispatcher Dispatcher) ClientOption {
	return func(o *clientOptions) {
		o.dispatcher = dispatcher
	}
}

// WithSessionExpiredHandler registers a callback run once per failed
// refresh. Applications use it to force a logout.
func WithSessionExpiredHandler(handler func(error)) ClientOption {
	return func(o *clientOptions) {
		o.onExpired = handler
	}
}

// WithSkipRefresh marks paths whose 401 responses are surfaced directly,
// typically the authentication endpoints themselves.
func WithSkipRefresh(skip func(path string) bool) ClientOption {
	return func(o *clientOptions) {
		o.skipRefresh = skip
	}
}

// NewClient creates an API client for baseURL.
func NewClient(baseURL string, store SessionStore, refresher Refresher, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, pkgerrors.New("[NewClient] baseURL is required")
	}
	if store == nil {
		return nil, pkgerrors.New("[NewClient] session store is required")
	}
	if refresher == nil {
		return nil, pkgerrors.New("[NewClient] refresher is required")
	}

	opts := clientOptions{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		dispatcher:  GoDispatcher,
		skipRefresh: func(string) bool { return false },
	}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.httpClient == nil {
		return nil, pkgerrors.New("[NewClient] httpClient must not be nil")
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  opts.httpClient,
		store:       store,
		skipRefresh: opts.skipRefresh,
	}
	c.coordinator = newCoordinator(refresher, store, c.replay, opts.dispatcher, opts.onExpired)
	return c, nil
}

// Coordinator returns the client's refresh coordinator.
func (c *Client) Coordinator() *Coordinator {
	return c.coordinator
}

// Do sends method path with an optional JSON body. Credential attachment,
// retry on 401 and refresh are handled here; callers only see the final
// result.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	data, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, &Request{
		Method: method,
		Path:   path,
		Body:   data,
		Header: make(http.Header),
	})
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// execute sends req once and applies the inbound rules: an unauthorized
// response to a request that has not been retried goes to the coordinator,
// everything else is returned unchanged.
func (c *Client) execute(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err == nil {
		return resp, nil
	}

	if !isUnauthorized(err) {
		return nil, err
	}
	if req.retried || c.skipRefresh(req.Path) {
		log.Warn().Str("method", req.Method).Str("path", req.Path).Bool("retried", req.retried).Msg("Unauthorized response surfaced")
		return nil, err
	}

	log.Debug().Str("method", req.Method).Str("path", req.Path).Msg("Unauthorized response, handing to refresh coordinator")
	return c.coordinator.HandleUnauthorized(ctx, req)
}

// replay resubmits the one-shot retry of req.
func (c *Client) replay(ctx context.Context, req *Request) (*Response, error) {
	return c.execute(ctx, req.replayCopy())
}

func isUnauthorized(err error) bool {
	var httpErr *apierrors.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusUnauthorized
}
