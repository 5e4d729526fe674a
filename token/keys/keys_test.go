package keys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-auth-client/token/keys"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateKeyPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "signing.pem")

	created, err := keys.LoadOrCreateKeyPair(path, "dev")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := keys.LoadOrCreateKeyPair(path, "dev")
	require.NoError(t, err)
	require.True(t, created.PrivateKey.Equal(loaded.PrivateKey))
}

func TestLoadKeyPairFromPEMRejectsGarbage(t *testing.T) {
	_, err := keys.LoadKeyPairFromPEM("dev", []byte("not pem"))
	require.Error(t, err)
}
