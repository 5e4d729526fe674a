package refreshrepofake

import (
	"sort"
	"sync"

	"github.com/jrsteele09/go-auth-client/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

// FakeRefreshTokenRepo keeps refresh tokens in memory. Records are copied
// in and out so callers cannot mutate stored state.
type FakeRefreshTokenRepo struct {
	lock    sync.RWMutex
	byToken map[string]refresh.StoredRefreshToken
	byUser  map[string]string // user ID to its live token
}

func NewFakeRefreshTokenRepo() refresh.Repo {
	return &FakeRefreshTokenRepo{
		byToken: make(map[string]refresh.StoredRefreshToken),
		byUser:  make(map[string]string),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(rt *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.byToken[rt.Token] = *rt
	tr.byUser[rt.UserID] = rt.Token
	return nil
}

func (tr *FakeRefreshTokenRepo) Delete(token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.byToken[token]
	if !ok {
		return refresh.ErrNotFound
	}
	delete(tr.byToken, token)
	if tr.byUser[rt.UserID] == token {
		delete(tr.byUser, rt.UserID)
	}
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.byToken[token]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	return &rt, nil
}

func (tr *FakeRefreshTokenRepo) GetByUserID(userID string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.byToken[tr.byUser[userID]]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	return &rt, nil
}

// List pages through the tokens oldest first. limit <= 0 means no limit.
func (tr *FakeRefreshTokenRepo) List(offset, limit int) ([]*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	all := make([]*refresh.StoredRefreshToken, 0, len(tr.byToken))
	for _, rt := range tr.byToken {
		all = append(all, &rt)
	}
	tr.lock.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Iat.Equal(all[j].Iat) {
			return all[i].Token < all[j].Token
		}
		return all[i].Iat.Before(all[j].Iat)
	})

	if offset < 0 || offset >= len(all) {
		return nil, nil
	}
	if limit > 0 && offset+limit < len(all) {
		return all[offset : offset+limit], nil
	}
	return all[offset:], nil
}
