package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified access token claims
const ContextKeyClaims ContextKey = "claims"

// RequireAuth is middleware that validates a Bearer access token
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, "unauthorized", "Missing or malformed Authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := s.verifier.Verify(token)
			if err != nil {
				description := "Invalid token"
				if errors.Is(err, jwt.ErrTokenRevoked) {
					description = "Token revoked"
				}
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected access token")
				writeJSONError(w, "invalid_token", description, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// claimsFromContext returns the claims RequireAuth stored on the request.
func claimsFromContext(ctx context.Context) (*jwt.AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*jwt.AccessClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
