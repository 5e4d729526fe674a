package credential

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// TokenType is the authorization scheme used for every access credential.
const TokenType = "Bearer"

// Credential is an access token together with the expiry decoded from its
// claims. Values are never mutated; every login or refresh produces a new one.
type Credential struct {
	Token     string `json:"token"`
	ExpiresAt *int64 `json:"expires_at,omitempty"` // Unix seconds from the exp claim, nil if undecodable
}

// Parse decodes the exp claim of rawToken without verifying the signature.
// A token that is not a JWT, or carries no numeric exp, gets a nil ExpiresAt.
func Parse(rawToken string) Credential {
	c := Credential{Token: rawToken}
	if exp, ok := decodeExpiry(rawToken); ok {
		c.ExpiresAt = &exp
	}
	return c
}

// IsValid reports whether the credential carries an expiry that is after now.
func (c Credential) IsValid(now time.Time) bool {
	if c.Token == "" || c.ExpiresAt == nil {
		return false
	}
	return now.Unix() < *c.ExpiresAt
}

// Expiry returns the expiry as a time, or the zero time if unknown.
func (c Credential) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return time.Unix(*c.ExpiresAt, 0)
}

// OAuth2Token returns the credential in the form golang.org/x/oauth2 expects,
// mainly so SetAuthHeader can be used to attach it to requests.
func (c Credential) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.Token,
		TokenType:   TokenType,
		Expiry:      c.Expiry(),
	}
}

// IsTokenValid is the pure decode-and-compare check used by the session
// store. No network call is made.
func IsTokenValid(rawToken string, now time.Time) bool {
	return Parse(rawToken).IsValid(now)
}

func decodeExpiry(rawToken string) (int64, bool) {
	if strings.TrimSpace(rawToken) == "" {
		return 0, false
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return 0, false
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return 0, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	return exp.Unix(), true
}
