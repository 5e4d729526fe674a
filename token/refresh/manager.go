package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrExpired is returned by Rotate for a token past its lifetime.
var ErrExpired = errors.New("refresh token expired")

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	config config.TokenConfig
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.TokenConfig) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[refresh.NewManager] repo is required")
	}
	if cfg == nil {
		return nil, errors.New("[refresh.NewManager] config is required")
	}
	return &Manager{repo: repo, config: cfg}, nil
}

// Create generates a new refresh token for userID. A user holds a single
// refresh token, so any previous one is replaced.
func (m *Manager) Create(userID string) (string, error) {
	if existing, err := m.repo.GetByUserID(userID); err == nil && existing != nil {
		if err := m.repo.Delete(existing.Token); err != nil {
			return "", fmt.Errorf("failed to delete existing refresh token: %w", err)
		}
	}

	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate validates token and replaces it with a new one for the same user.
// The old token stops working immediately. Of several concurrent rotations
// of one token, only the one whose delete succeeds issues a replacement.
func (m *Manager) Rotate(token string) (*StoredRefreshToken, string, error) {
	stored, err := m.repo.Get(token)
	if err != nil {
		return nil, "", err
	}
	if err := m.repo.Delete(token); err != nil {
		return nil, "", err
	}
	if m.IsExpired(stored) {
		return nil, "", ErrExpired
	}

	next, err := m.Create(stored.UserID)
	if err != nil {
		return nil, "", err
	}
	return stored, next, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token is past the configured lifetime
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}

// Expiry is the refresh token lifetime, used for the cookie Max-Age.
func (m *Manager) Expiry() time.Duration {
	return m.config.GetRefreshTokenExpiry()
}
