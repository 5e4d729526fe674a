package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Error kinds surfaced by the session store and the API client.
var (
	// Login errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongRoleEndpoint  = errors.New("account cannot sign in through this login")

	// Transport errors
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrRequestTimeout     = errors.New("request timed out")

	// Session errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRefreshFailed    = errors.New("session refresh failed")
	ErrNotAuthenticated = errors.New("not authenticated")

	// HTTP errors not related to authentication
	ErrServerError = errors.New("server error")
	ErrHTTP        = errors.New("http error")
)

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	Status  int
	Message string // message field of the error payload, if any
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// NewHTTPError builds an HTTPError from a response status and body. The
// message is taken from "message", "error_description" or "error", in
// that order.
func NewHTTPError(status int, body []byte) *HTTPError {
	return &HTTPError{Status: status, Message: payloadMessage(body), Body: body}
}

func payloadMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error_description", "error"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Unwrap maps the status code onto one of the sentinel kinds so callers can
// use errors.Is.
func (e *HTTPError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return ErrHTTP
	}
}

// Classify maps an error returned by http.Client.Do onto ErrRequestTimeout
// or ErrNetworkUnavailable. Context cancellation by the caller is returned
// unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
}

// UserMessage returns the text a UI should show for err.
func UserMessage(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetworkUnavailable):
		return "Cannot reach the server. Check your network connection and try again."
	case errors.Is(err, ErrRequestTimeout):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, ErrWrongRoleEndpoint):
		return "This account cannot sign in here. Choose the login that matches your role."
	case errors.Is(err, ErrInvalidCredentials):
		if errors.As(err, &httpErr) && strings.TrimSpace(httpErr.Message) != "" {
			return httpErr.Message
		}
		return "Invalid username or password."
	case errors.Is(err, ErrRefreshFailed), errors.Is(err, ErrNotAuthenticated):
		return "Your session has ended. Please sign in again."
	case errors.Is(err, ErrServerError):
		return "The server encountered an error. Please try again later."
	default:
		return "Something went wrong. Please try again."
	}
}

// Wrapf prefixes err with a formatted message, keeping it in the chain.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
