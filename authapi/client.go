package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var _ session.Authenticator = (*Client)(nil)

// Client talks to the login, refresh and logout endpoints directly over
// HTTP. It bypasses the request pipeline so an unauthorized refresh can
// never be routed back into the refresh coordinator.
//
// The http.Client should carry a cookie jar shared with the API client: the
// refresh endpoint authenticates with a cookie set during login.
type Client struct {
	baseURL    string
	httpClient *http.Client
	endpoints  Endpoints
}

// New creates an authentication endpoint client.
func New(baseURL string, httpClient *http.Client, endpoints Endpoints) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[authapi.New] baseURL is required")
	}
	if httpClient == nil {
		return nil, errors.New("[authapi.New] httpClient is required")
	}
	if endpoints.Refresh == "" || endpoints.Logout == "" || len(endpoints.Login) == 0 {
		return nil, errors.New("[authapi.New] endpoints are incomplete")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		endpoints:  endpoints,
	}, nil
}

// Endpoints returns the configured endpoint paths.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Login posts the identifier and secret to the endpoint of class.
// 400/401/422 map to ErrInvalidCredentials and 403 to ErrWrongRoleEndpoint.
func (c *Client) Login(ctx context.Context, class users.PrincipalClass, identifier, secret string) (*session.Grant, error) {
	path, ok := c.endpoints.Login[class]
	if !ok {
		return nil, fmt.Errorf("%w: no login endpoint for %q", apierrors.ErrWrongRoleEndpoint, class)
	}

	body, err := json.Marshal(loginRequest{Username: identifier, Password: secret, Role: string(class)})
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	status, respBody, err := c.post(ctx, path, body, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %w", apierrors.ErrInvalidCredentials, apierrors.NewHTTPError(status, respBody))
	case status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", apierrors.ErrWrongRoleEndpoint, apierrors.NewHTTPError(status, respBody))
	case status < 200 || status > 299:
		return nil, apierrors.NewHTTPError(status, respBody)
	}

	return grantFromBody(respBody)
}

// Refresh exchanges the session cookie for a new access credential.
func (c *Client) Refresh(ctx context.Context) (*session.Grant, error) {
	status, respBody, err := c.post(ctx, c.endpoints.Refresh, nil, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, apierrors.NewHTTPError(status, respBody)
	}
	return grantFromBody(respBody)
}

// Logout asks the server to revoke the session. The response payload is
// ignored.
func (c *Client) Logout(ctx context.Context, current credential.Credential) error {
	status, respBody, err := c.post(ctx, c.endpoints.Logout, nil, &current)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return apierrors.NewHTTPError(status, respBody)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, bearer *credential.Credential) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, apierrors.Wrapf(err, "create %s request", path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != nil && bearer.Token != "" {
		bearer.OAuth2Token().SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := apierrors.Classify(err)
		log.Err(classified).Str("path", path).Msg("Auth request failed")
		return 0, nil, classified
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apierrors.Wrapf(apierrors.Classify(err), "read %s response", path)
	}
	return resp.StatusCode, respBody, nil
}
