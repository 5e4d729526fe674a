package refresh

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Repo implementations for unknown tokens.
var ErrNotFound = errors.New("refresh token not found")

// StoredRefreshToken is the server-side record of a refresh token. The
// client only ever sees Token, inside an HttpOnly cookie.
type StoredRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

// Repo manages server-side storage of refresh tokens keyed by the token
// string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID string) (*StoredRefreshToken, error)
	List(offset, limit int) ([]*StoredRefreshToken, error)
}
