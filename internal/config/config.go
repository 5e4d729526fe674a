package config

import "time"

// Config is everything the client and the development backend read from the
// environment.
type Config interface {
	EnvConfig
	ClientConfig
	TokenConfig
	KeyConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFormat() string
}

type ClientConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetStateFile() string
	GetEndpointsFile() string
}

type TokenConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type KeyConfig interface {
	GetSigningKeyFile() string
	GetSigningKeyID() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Tokens
	Keys
	Cors
}

func New() Config {
	return mainConfig{}
}
