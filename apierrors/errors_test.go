package apierrors_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorUnwrap(t *testing.T) {
	require.ErrorIs(t, apierrors.NewHTTPError(http.StatusUnauthorized, nil), apierrors.ErrUnauthorized)
	require.ErrorIs(t, apierrors.NewHTTPError(http.StatusBadGateway, nil), apierrors.ErrServerError)
	require.ErrorIs(t, apierrors.NewHTTPError(http.StatusNotFound, nil), apierrors.ErrHTTP)
	require.NotErrorIs(t, apierrors.NewHTTPError(http.StatusNotFound, nil), apierrors.ErrUnauthorized)
}

func TestNewHTTPErrorMessagePrecedence(t *testing.T) {
	err := apierrors.NewHTTPError(http.StatusBadRequest, []byte(`{"error":"invalid_request","message":"Username atau password salah"}`))
	require.Equal(t, "Username atau password salah", err.Message)
	require.Equal(t, "HTTP 400: Username atau password salah", err.Error())

	err = apierrors.NewHTTPError(http.StatusBadRequest, []byte(`{"error":"invalid_grant","error_description":"refresh expired"}`))
	require.Equal(t, "refresh expired", err.Message)

	err = apierrors.NewHTTPError(http.StatusInternalServerError, []byte("<html>oops</html>"))
	require.Empty(t, err.Message)
	require.Equal(t, "HTTP 500", err.Error())
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestClassify(t *testing.T) {
	require.NoError(t, apierrors.Classify(nil))

	refused := &url.Error{Op: "Post", URL: "http://localhost:1", Err: errors.New("connection refused")}
	require.ErrorIs(t, apierrors.Classify(refused), apierrors.ErrNetworkUnavailable)
	var urlErr *url.Error
	require.True(t, errors.As(apierrors.Classify(refused), &urlErr), "transport error stays in the chain")
	require.Equal(t, "Post", urlErr.Op)

	timedOut := &url.Error{Op: "Get", URL: "http://localhost:1", Err: timeoutError{}}
	require.ErrorIs(t, apierrors.Classify(timedOut), apierrors.ErrRequestTimeout)

	require.ErrorIs(t, apierrors.Classify(context.DeadlineExceeded), apierrors.ErrRequestTimeout)
	require.ErrorIs(t, apierrors.Classify(context.Canceled), context.Canceled)
}

func TestUserMessage(t *testing.T) {
	require.Empty(t, apierrors.UserMessage(nil))

	serverMsg := fmt.Errorf("%w: %w", apierrors.ErrInvalidCredentials, apierrors.NewHTTPError(http.StatusUnauthorized, []byte(`{"message":"Wrong password"}`)))
	require.Equal(t, "Wrong password", apierrors.UserMessage(serverMsg))
	require.Equal(t, "Invalid username or password.", apierrors.UserMessage(apierrors.ErrInvalidCredentials))

	require.NotEqual(t,
		apierrors.UserMessage(apierrors.ErrNetworkUnavailable),
		apierrors.UserMessage(apierrors.ErrInvalidCredentials))
	require.Contains(t, apierrors.UserMessage(apierrors.ErrNetworkUnavailable), "network")
}

func TestWrapf(t *testing.T) {
	require.NoError(t, apierrors.Wrapf(nil, "context"))

	err := apierrors.Wrapf(apierrors.ErrRefreshFailed, "refresh for %s", "user-1")
	require.ErrorIs(t, err, apierrors.ErrRefreshFailed)
	require.Equal(t, "refresh for user-1: session refresh failed", err.Error())
}
