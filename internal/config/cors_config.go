package config

import (
	"sort"
	"strings"
)

const corsOriginsVar = "CORS_ORIGINS"

// Wildcard in CORS_ORIGINS allows any origin, but without credentials, so
// such origins cannot use the refresh cookie.
const Wildcard = "*"

type Cors struct{}

var _ CorsConfig = Cors{}

// AllowedOrigins is a set of exact origins (scheme://host[:port]).
type AllowedOrigins map[string]struct{}

// ParseAllowedOrigins reads a comma separated list. Blank entries and
// trailing slashes are ignored.
func ParseAllowedOrigins(list string) AllowedOrigins {
	origins := AllowedOrigins{}
	for _, origin := range strings.Split(list, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return origins
}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	origins := make([]string, 0, len(a))
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

// GetAllowedOrigins defaults to the local frontend dev server.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	return ParseAllowedOrigins(GetEnv(corsOriginsVar, "http://localhost:5173"))
}

// GetAllowedMethods lists what the backend routes accept.
func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, DELETE, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, X-Request-ID"
}
