package authapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/users"
)

// accessTokenKeys in precedence order.
var accessTokenKeys = []string{"accessToken", "access_token", "token"}

// loginRequest is the body sent to the login endpoints.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// grantFromBody parses `{accessToken, user?}`. A `{"success":..,"data":{..}}`
// envelope is unwrapped first when the token is not at the top level.
func grantFromBody(body []byte) (*session.Grant, error) {
	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	token := firstToken(payload)
	if token == "" {
		if data, ok := payload["data"].(map[string]any); ok {
			payload = data
			token = firstToken(payload)
		}
	}
	if token == "" {
		return nil, fmt.Errorf("token response has no access token")
	}

	grant := &session.Grant{Credential: credential.Parse(token)}
	if user, ok := payload["user"].(map[string]any); ok && len(user) > 0 {
		identity := users.NormalizeIdentity(user)
		grant.Identity = &identity
	}
	return grant, nil
}

func firstToken(payload map[string]any) string {
	for _, key := range accessTokenKeys {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
