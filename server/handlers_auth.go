package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/token/refresh"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	// refreshCookieName is the HttpOnly cookie carrying the refresh token
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginHandler authenticates accounts of class. Accounts of the other class
// get 403 so the client can tell the user to pick the other login.
func (s *Server) LoginHandler(class users.PrincipalClass) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Malformed login request", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			writeJSONError(w, "invalid_request", "Username and password are required", http.StatusUnprocessableEntity)
			return
		}

		user, err := s.findUser(req.Username)
		if err != nil || !user.CheckPassword(req.Password) {
			log.Info().Str("username", req.Username).Str("class", string(class)).Msg("Login rejected: bad credentials")
			writeJSONError(w, "invalid_grant", "Invalid username or password", http.StatusUnauthorized)
			return
		}
		if user.Blocked {
			writeJSONError(w, "invalid_grant", "Account is blocked", http.StatusUnauthorized)
			return
		}
		if user.Role.PrincipalClass() != class {
			writeJSONError(w, "wrong_endpoint", "This account must sign in through the "+string(user.Role.PrincipalClass())+" login", http.StatusForbidden)
			return
		}

		accessToken, err := s.issueSession(w, r, user)
		if err != nil {
			log.Err(err).Str("username", user.Username).Msg("Login: failed to issue tokens")
			writeJSONError(w, "server_error", "Could not create session", http.StatusInternalServerError)
			return
		}
		if err := s.users.SetLastLogin(user.Username); err != nil {
			log.Warn().Err(err).Str("username", user.Username).Msg("Login: failed to record last login")
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"accessToken": accessToken,
				"user":        user.Payload(),
			},
		})
	}
}

// RefreshHandler exchanges the refresh cookie for a new access token and
// rotates the cookie.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, "invalid_grant", "Refresh token missing", http.StatusUnauthorized)
			return
		}

		stored, next, err := s.refresh.Rotate(cookie.Value)
		if err != nil {
			description := "Refresh token invalid"
			if errors.Is(err, refresh.ErrExpired) {
				description = "Refresh token expired"
			}
			s.clearRefreshCookie(w, r)
			writeJSONError(w, "invalid_grant", description, http.StatusUnauthorized)
			return
		}

		user, err := s.users.GetByID(stored.UserID)
		if err != nil || user.Blocked {
			_ = s.refresh.Delete(next)
			s.clearRefreshCookie(w, r)
			writeJSONError(w, "invalid_grant", "Account unavailable", http.StatusUnauthorized)
			return
		}

		accessToken, _, err := s.creator.CreateAccessToken(user)
		if err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("Refresh: failed to sign access token")
			writeJSONError(w, "server_error", "Could not refresh session", http.StatusInternalServerError)
			return
		}
		s.setRefreshCookie(w, r, next)

		writeJSON(w, http.StatusOK, map[string]any{"accessToken": accessToken})
	}
}

// LogoutHandler revokes the presented access token and the refresh cookie.
// It always answers 204; there is nothing useful a client could do with a
// failure.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := s.verifier.ParseSigned(token); err == nil && claims.ID != "" {
				exp := time.Now().Add(s.config.GetAccessTokenExpiry())
				if claims.ExpiresAt != nil {
					exp = claims.ExpiresAt.Time
				}
				s.revoked.Add(claims.ID, exp)
			}
		}
		if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
			_ = s.refresh.Delete(cookie.Value)
		}
		s.clearRefreshCookie(w, r)
		s.revoked.Cleanup()
		w.WriteHeader(http.StatusNoContent)
	}
}

// issueSession signs an access token and sets a fresh refresh cookie.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, user *users.User) (string, error) {
	accessToken, _, err := s.creator.CreateAccessToken(user)
	if err != nil {
		return "", err
	}
	refreshToken, err := s.refresh.Create(user.ID)
	if err != nil {
		return "", err
	}
	s.setRefreshCookie(w, r, refreshToken)
	return accessToken, nil
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.refresh.Expiry().Seconds()),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// findUser resolves a login identifier: username first, then NIM or NIP.
func (s *Server) findUser(identifier string) (*users.User, error) {
	identifier = strings.TrimSpace(identifier)
	if user, err := s.users.GetByUsername(identifier); err == nil {
		return user, nil
	}

	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		page, err := s.users.List(offset, pageSize)
		if err != nil {
			return nil, err
		}
		for _, u := range page {
			if (u.NIM != "" && u.NIM == identifier) || (u.NIP != "" && u.NIP == identifier) {
				return u, nil
			}
		}
		if len(page) < pageSize {
			return nil, errors.New("user not found")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an OAuth2 style error. message repeats the
// description for clients that only read message.
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
		"message":           description,
	})
}
