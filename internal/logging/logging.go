// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel accepts zerolog level names. Unknown or empty values mean info.
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// Setup points the global logger at w (stderr when nil). format "console"
// gives human readable output, anything else JSON.
func Setup(level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
