package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-auth-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, logging.ParseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, logging.ParseLevel(" warn "))
	require.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, logging.ParseLevel("loud"))
}

func TestSetupJSON(t *testing.T) {
	previous, previousLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(previousLevel)
	})

	var buf bytes.Buffer
	logging.Setup("warn", "json", &buf)

	log.Info().Msg("dropped")
	log.Warn().Str("path", "/api/profile").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "kept", entry["message"])
	require.Equal(t, "/api/profile", entry["path"])
	require.Equal(t, "warn", entry["level"])
}
