package refresh_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-auth-client/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

type tokenConfig struct{}

func (tokenConfig) GetAccessTokenExpiry() time.Duration  { return time.Minute }
func (tokenConfig) GetRefreshTokenExpiry() time.Duration { return time.Hour }
func (tokenConfig) GetRefreshTokenLength() int           { return 16 }

func setupTestFixture(t *testing.T) (*refresh.Manager, refresh.Repo) {
	t.Helper()
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	manager, err := refresh.NewManager(repo, tokenConfig{})
	require.NoError(t, err)
	return manager, repo
}

func TestCreateReplacesPreviousToken(t *testing.T) {
	manager, repo := setupTestFixture(t)

	first, err := manager.Create("u-1")
	require.NoError(t, err)
	require.Len(t, first, 32, "hex of 16 bytes")

	second, err := manager.Create("u-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = repo.Get(first)
	require.ErrorIs(t, err, refresh.ErrNotFound)
	stored, err := repo.GetByUserID("u-1")
	require.NoError(t, err)
	require.Equal(t, second, stored.Token)
}

func TestRotate(t *testing.T) {
	manager, _ := setupTestFixture(t)
	token, err := manager.Create("u-1")
	require.NoError(t, err)

	stored, next, err := manager.Rotate(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", stored.UserID)
	require.NotEqual(t, token, next)

	_, _, err = manager.Rotate(token)
	require.ErrorIs(t, err, refresh.ErrNotFound, "old token is single use")
}

func TestConcurrentRotateIssuesOneReplacement(t *testing.T) {
	manager, repo := setupTestFixture(t)
	token, err := manager.Create("u-1")
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	replacements := make(chan string, n)
	errs := make(chan error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, next, err := manager.Rotate(token); err != nil {
				errs <- err
			} else {
				replacements <- next
			}
		}()
	}
	close(start)
	wg.Wait()
	close(replacements)
	close(errs)

	require.Len(t, replacements, 1)
	for err := range errs {
		require.ErrorIs(t, err, refresh.ErrNotFound)
	}
	stored, err := repo.GetByUserID("u-1")
	require.NoError(t, err)
	require.Equal(t, <-replacements, stored.Token)
}

func TestRotateExpired(t *testing.T) {
	manager, repo := setupTestFixture(t)
	previous := refresh.NowTimeFunc
	t.Cleanup(func() { refresh.NowTimeFunc = previous })

	refresh.NowTimeFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := manager.Create("u-1")
	require.NoError(t, err)
	refresh.NowTimeFunc = time.Now

	_, _, err = manager.Rotate(token)
	require.ErrorIs(t, err, refresh.ErrExpired)
	_, err = repo.Get(token)
	require.ErrorIs(t, err, refresh.ErrNotFound)
}

func TestFakeRepoList(t *testing.T) {
	manager, repo := setupTestFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := manager.Create(id)
		require.NoError(t, err)
	}

	page, err := repo.List(0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	page, err = repo.List(2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)

	page, err = repo.List(5, 2)
	require.NoError(t, err)
	require.Empty(t, page)
}
