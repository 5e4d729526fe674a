package config

import (
	"os"

	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// endpointsFile is the YAML layout of ENDPOINTS_FILE:
//
//	login:
//	  staff: /auth/login/staff
//	  member: /auth/login/member
//	refresh: /auth/refresh
//	logout: /auth/logout
type endpointsFile struct {
	Login   map[string]string `yaml:"login"`
	Refresh string            `yaml:"refresh"`
	Logout  string            `yaml:"logout"`
}

// LoadEndpoints returns the default endpoints with any overrides from the
// YAML file at path applied. An empty path means no overrides.
func LoadEndpoints(path string) (authapi.Endpoints, error) {
	endpoints := authapi.DefaultEndpoints()
	if path == "" {
		return endpoints, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return authapi.Endpoints{}, errors.Wrapf(err, "[LoadEndpoints] read %s", path)
	}

	var file endpointsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return authapi.Endpoints{}, errors.Wrapf(err, "[LoadEndpoints] parse %s", path)
	}

	for name, p := range file.Login {
		class, err := users.ParsePrincipalClass(name)
		if err != nil {
			return authapi.Endpoints{}, errors.Wrapf(err, "[LoadEndpoints] %s", path)
		}
		if p != "" {
			endpoints.Login[class] = p
		}
	}
	if file.Refresh != "" {
		endpoints.Refresh = file.Refresh
	}
	if file.Logout != "" {
		endpoints.Logout = file.Logout
	}
	return endpoints, nil
}
