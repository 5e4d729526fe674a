package keys

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey is a jwt.Keyfunc for tokens this signer issued
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

var _ Signer = (*KeyPairSigner)(nil)

// KeyPairSigner implements Signer using RSA with RS256
type KeyPairSigner struct {
	keyPair *KeyPair
}

// NewKeyPairSigner creates a new key pair signer with the given key pair
func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{
		keyPair: keyPair,
	}
}

func (a *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(a.GetSigningMethod(), claims)
	token.Header["kid"] = a.keyPair.KeyID

	signedToken, err := token.SignedString(a.keyPair.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

func (a *KeyPairSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if kid, _ := token.Header["kid"].(string); kid != "" && kid != a.keyPair.KeyID {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return a.keyPair.PublicKey(), nil
}

func (a *KeyPairSigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodRS256
}

// GetJWKS returns the JSON Web Key Set for the signing key
func (a *KeyPairSigner) GetJWKS() JWKS {
	return JWKS{Keys: []JWK{a.keyPair.ToJWK()}}
}
