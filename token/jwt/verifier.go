package jwt

import (
	"errors"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/token/keys"
)

var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Verifier validates access tokens issued by a Creator sharing its signer
type Verifier struct {
	signer  keys.Signer
	revoked RevokedChecker
	issuer  string
}

// NewVerifier creates a verifier. revoked may be nil.
func NewVerifier(signer keys.Signer, revoked RevokedChecker, issuer string) *Verifier {
	return &Verifier{signer: signer, revoked: revoked, issuer: issuer}
}

// Verify checks signature, issuer, expiry and revocation.
func (v *Verifier) Verify(rawToken string) (*AccessClaims, error) {
	claims, err := v.parse(rawToken,
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuer(v.issuer),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" && v.revoked != nil && v.revoked.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// ParseSigned checks only the signature. Logout uses it so an expired
// access token can still be revoked.
func (v *Verifier) ParseSigned(rawToken string) (*AccessClaims, error) {
	return v.parse(rawToken, jwtlib.WithoutClaimsValidation())
}

func (v *Verifier) parse(rawToken string, options ...jwtlib.ParserOption) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrTokenMissing
	}

	options = append(options, jwtlib.WithValidMethods([]string{v.signer.GetSigningMethod().Alg()}))
	claims := &AccessClaims{}
	token, err := jwtlib.ParseWithClaims(rawToken, claims, v.signer.GetVerificationKey, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
