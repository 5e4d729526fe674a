package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	apiBaseURLVar     = "API_BASE_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"
	stateFileVar      = "STATE_FILE"
	endpointsFileVar  = "ENDPOINTS_FILE"

	defaultRequestTimeout = 10 * time.Second
)

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the API root without a trailing slash.
func (Client) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:8080"), "/")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetDuration(requestTimeoutVar, defaultRequestTimeout)
}

// GetStateFile is where the CLI persists the session between runs.
func (Client) GetStateFile() string {
	if path := os.Getenv(stateFileVar); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".authclient", "state.json")
	}
	return filepath.Join(home, ".authclient", "state.json")
}

// GetEndpointsFile is an optional YAML file overriding the endpoint paths.
func (Client) GetEndpointsFile() string {
	return GetEnv(endpointsFileVar, "")
}
