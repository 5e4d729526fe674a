package credential_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestIsTokenValid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "expired 100s ago", token: testutil.AccessToken(t, now.Add(-100*time.Second), nil), want: false},
		{name: "expires in 100s", token: testutil.AccessToken(t, now.Add(100*time.Second), nil), want: true},
		{name: "undecodable", token: "not-a-jwt", want: false},
		{name: "empty", token: "", want: false},
		{name: "no exp claim", token: testutil.TokenWithoutExpiry(t), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, credential.IsTokenValid(tt.token, now))
		})
	}
}

func TestParseExtractsExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	c := credential.Parse(testutil.AccessToken(t, exp, nil))

	require.NotNil(t, c.ExpiresAt)
	require.Equal(t, exp.Unix(), *c.ExpiresAt)
	require.True(t, c.Expiry().Equal(exp))
}

func TestParseUndecodableHasNoExpiry(t *testing.T) {
	c := credential.Parse("tok1")
	require.Nil(t, c.ExpiresAt)
	require.True(t, c.Expiry().IsZero())
	require.False(t, c.IsValid(time.Now()))
}

func TestIsValidAtBoundary(t *testing.T) {
	exp := time.Now().Add(time.Minute).Truncate(time.Second)
	c := credential.Parse(testutil.AccessToken(t, exp, nil))

	require.True(t, c.IsValid(exp.Add(-time.Second)))
	require.False(t, c.IsValid(exp))
}

func TestOAuth2TokenSetsBearerHeader(t *testing.T) {
	c := credential.Parse("tok2")
	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	c.OAuth2Token().SetAuthHeader(req)
	require.Equal(t, "Bearer tok2", req.Header.Get("Authorization"))
}
