package config

const (
	signingKeyFileVar = "SIGNING_KEY_FILE"
	signingKeyIDVar   = "SIGNING_KEY_ID"
)

type Keys struct{}

var _ KeyConfig = Keys{}

// GetSigningKeyFile is the PEM file holding the token signing key. Empty
// means a new key on every start, which invalidates issued tokens.
func (Keys) GetSigningKeyFile() string {
	return GetEnv(signingKeyFileVar, "")
}

func (Keys) GetSigningKeyID() string {
	return GetEnv(signingKeyIDVar, "dev-key-1")
}
