package server

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-auth-client/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem creates the seed accounts that do not exist yet. Existing
// accounts keep their password.
func (s *Server) InitialiseSystem(_ context.Context, seeds []users.SeedUser) error {
	for _, seed := range seeds {
		if _, err := s.users.GetByUsername(seed.Username); err == nil {
			continue
		}

		user, err := users.NewUserFromSeed(seed)
		if err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to create %s: %w", seed.Username, err)
		}
		if err := s.users.Upsert(user); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to store %s: %w", seed.Username, err)
		}

		if s.env == "DEV" {
			log.Info().
				Str("username", seed.Username).
				Str("password", seed.Password).
				Str("role", string(seed.Role)).
				Str("login", string(seed.Role.PrincipalClass())).
				Msg("Seeded account")
		}
	}
	return nil
}
