package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	envVar          = "ENV"
	logLevelEnvVar  = "LOG_LEVEL"
	logFormatEnvVar = "LOG_FORMAT"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Auth Dev Server")
}

// GetEnv returns the deployment environment, DEV when unset.
func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envVar, "DEV"))
}

func (EnvVars) GetLogLevel() string {
	return strings.ToLower(GetEnv(logLevelEnvVar, "info"))
}

// GetLogFormat is "console" or "json". DEV defaults to console.
func (e EnvVars) GetLogFormat() string {
	if format := os.Getenv(logFormatEnvVar); format != "" {
		return strings.ToLower(format)
	}
	if e.GetEnv() == "DEV" {
		return "console"
	}
	return "json"
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDuration parses envVar with time.ParseDuration, falling back to a whole
// number of seconds. Invalid values are logged and the default is used.
func GetDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("var", envVar).Str("value", value).Dur("default", defaultValue).Msg("Invalid duration, using default")
	return defaultValue
}
