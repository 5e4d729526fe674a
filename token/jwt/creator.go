package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/token/keys"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// AccessClaims are the claims of an access token. The client only ever reads
// exp; role and name let a caller render something before asking for the
// profile.
type AccessClaims struct {
	Role     users.Role `json:"role"`
	Name     string     `json:"name,omitempty"`
	Username string     `json:"username,omitempty"`
	jwtlib.RegisteredClaims
}

// Creator issues access tokens
type Creator struct {
	signer keys.Signer
	config config.TokenConfig
	issuer string
}

// NewCreator creates a new JWT creator
func NewCreator(signer keys.Signer, cfg config.TokenConfig, issuer string) (*Creator, error) {
	if signer == nil {
		return nil, errors.New("[NewCreator] signer is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewCreator] config is required")
	}
	return &Creator{signer: signer, config: cfg, issuer: issuer}, nil
}

// CreateAccessToken creates a signed access token for user
func (c *Creator) CreateAccessToken(user *users.User) (string, *AccessClaims, error) {
	if user == nil {
		return "", nil, errors.New("[CreateAccessToken] user is required")
	}

	now := NowTimeFunc()
	claims := &AccessClaims{
		Role:     user.Role,
		Name:     user.FullName,
		Username: user.Username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.config.GetAccessTokenExpiry())),
			ID:        uuid.New().String(), // jti, used for revocation
		},
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, claims, nil
}
