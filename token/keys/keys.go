package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// JWT algorithm used for every access token issued by the dev backend.
const RS256 = "RS256"

// KeyPair is an RSA key used to sign access tokens.
type KeyPair struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"` // Modulus
	E   string `json:"e,omitempty"` // Exponent
}

// GenerateRSAKeyPair generates a new RSA key pair, at least 2048 bits.
func GenerateRSAKeyPair(keyID string, bits int) (*KeyPair, error) {
	if bits < 2048 {
		bits = 2048
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey}, nil
}

// PublicKey returns the verification half of the pair.
func (kp *KeyPair) PublicKey() *rsa.PublicKey {
	return &kp.PrivateKey.PublicKey
}

// ExportPrivateKeyPEM encodes the private key as PKCS#1 PEM.
func (kp *KeyPair) ExportPrivateKeyPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(kp.PrivateKey),
	})
}

// ToJWK converts the public key to JWK format.
func (kp *KeyPair) ToJWK() JWK {
	pub := kp.PublicKey()
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kp.KeyID,
		Alg: RS256,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// LoadKeyPairFromPEM loads a PKCS#1 PEM private key.
func LoadKeyPairFromPEM(keyID string, pemData []byte) (*KeyPair, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey}, nil
}

// LoadOrCreateKeyPair reads the key at path, generating and saving one if
// the file does not exist. Tokens then survive a backend restart. An empty
// path gives an ephemeral key.
func LoadOrCreateKeyPair(path, keyID string) (*KeyPair, error) {
	if path == "" {
		return GenerateRSAKeyPair(keyID, 2048)
	}

	data, err := os.ReadFile(path)
	if err == nil {
		return LoadKeyPairFromPEM(keyID, data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	kp, err := GenerateRSAKeyPair(keyID, 2048)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, kp.ExportPrivateKeyPEM(), 0o600); err != nil {
		return nil, fmt.Errorf("write signing key: %w", err)
	}
	log.Info().Str("path", path).Msg("Generated signing key")
	return kp, nil
}
