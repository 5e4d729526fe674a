package testutil

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const signingSecret = "test-signing-secret"

// AccessToken mints an HS256 JWT expiring at exp. Extra claims are merged in.
func AccessToken(t testing.TB, exp time.Time, extra map[string]any) string {
	t.Helper()

	claims := jwtlib.MapClaims{
		"sub": "user-1",
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
		"jti": uuid.New().String(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	require.NoError(t, err)
	return signed
}

// TokenWithoutExpiry mints a JWT that has no exp claim.
func TokenWithoutExpiry(t testing.TB) string {
	t.Helper()

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "user-1"}).SignedString([]byte(signingSecret))
	require.NoError(t, err)
	return signed
}
