package jwt

import (
	"sync"
	"time"
)

var _ RevokedChecker = (*RevocationList)(nil)

// RevocationList remembers revoked jti values until the token would have
// expired anyway.
type RevocationList struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		revoked: make(map[string]time.Time),
	}
}

func (c *RevocationList) Add(jti string, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
}

func (c *RevocationList) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

// Cleanup removes entries whose token has expired and returns how many
// remain.
func (c *RevocationList) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := NowTimeFunc()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
	return len(c.revoked)
}
