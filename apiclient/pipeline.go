package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries a fresh id on every attempt, replays included.
const RequestIDHeader = "X-Request-ID"

// send performs one attempt of req: outbound interceptor, transport,
// inbound interceptor.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	c.attachCredential(httpReq, req)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		classified := apierrors.Classify(err)
		log.Err(classified).
			Str("method", req.Method).
			Str("path", req.Path).
			Str("request_id", httpReq.Header.Get(RequestIDHeader)).
			Msg("API request failed")
		return nil, classified
	}
	defer httpResp.Body.Close()

	return c.inspect(req, httpReq, httpResp)
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, apierrors.Wrapf(err, "create %s %s request", req.Method, req.Path)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, uuid.New().String())
	return httpReq, nil
}

// attachCredential is the outbound interceptor. The credential is read from
// the store at this point, so a request built before a refresh completed
// still goes out with the new token. It never blocks on I/O.
func (c *Client) attachCredential(httpReq *http.Request, req *Request) {
	cred, ok := c.store.Credential()
	if !ok || cred.Token == "" {
		httpReq.Header.Del("Authorization")
		req.sentWith = ""
		return
	}
	cred.OAuth2Token().SetAuthHeader(httpReq)
	req.sentWith = cred.Token
}

// inspect is the inbound interceptor. Non-2xx responses become
// *apierrors.HTTPError; failures other than 401 are logged here.
func (c *Client) inspect(req *Request, httpReq *http.Request, httpResp *http.Response) (*Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		classified := apierrors.Classify(err)
		log.Err(classified).Str("method", req.Method).Str("path", req.Path).Msg("Failed to read API response")
		return nil, classified
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode <= 299 {
		return &Response{
			Status: httpResp.StatusCode,
			Header: httpResp.Header,
			Data:   body,
		}, nil
	}

	httpErr := apierrors.NewHTTPError(httpResp.StatusCode, body)
	if httpResp.StatusCode != http.StatusUnauthorized {
		log.Err(httpErr).
			Str("method", req.Method).
			Str("path", req.Path).
			Str("request_id", httpReq.Header.Get(RequestIDHeader)).
			Msg("API error response")
	}
	return nil, httpErr
}
