package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/apierrors"
	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/kvstore"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Keys of the persisted session state.
const (
	TokenKey = "token"
	UserKey  = "user"
)

var _ oauth2.TokenSource = (*Store)(nil)

// Grant is what a successful login or refresh hands to the store.
// A nil Identity keeps the identity already held.
type Grant struct {
	Credential credential.Credential
	Identity   *users.Identity
}

// Authenticator performs the network side of login and logout.
type Authenticator interface {
	Login(ctx context.Context, class users.PrincipalClass, identifier, secret string) (*Grant, error)
	Logout(ctx context.Context, current credential.Credential) error
}

// LoginResult reports the outcome of Login. Message is meant for the user
// and is empty on success.
type LoginResult struct {
	Success  bool
	Message  string
	Identity *users.Identity
	Err      error
}

// snapshot is swapped as a whole so readers never see a credential paired
// with the previous identity.
type snapshot struct {
	credential credential.Credential
	identity   *users.Identity
}

// Store owns the current credential and identity. One instance is created by
// the application root and shared by the API client and route guards.
//
// Every mutation holds writeMu across both the in-memory swap and the
// persistence write, so the state file always matches the last writer.
// The epoch advances on every login and on every clear; a refresh started
// under an older epoch cannot reinstall a session that has since ended.
type Store struct {
	repo    kvstore.Repo
	auth    Authenticator
	nowTime func() time.Time

	writeMu sync.Mutex

	mu      sync.RWMutex
	current *snapshot // nil when anonymous
	epoch   uint64
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// NewStore creates an anonymous store. Call Restore to load persisted state.
func NewStore(repo kvstore.Repo, auth Authenticator, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}
	if auth == nil {
		return nil, errors.New("[NewStore] authenticator is required")
	}

	s := &Store{
		repo:    repo,
		auth:    auth,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Restore loads the persisted credential and identity. It returns true only
// if the stored token carries a non-expired claim; any other persisted
// state is removed.
func (s *Store) Restore() bool {
	token, found, err := s.repo.Get(TokenKey)
	if err != nil {
		log.Err(err).Msg("Restore: failed to read persisted token")
		s.Clear()
		return false
	}
	if !found || token == "" {
		return false
	}

	cred := credential.Parse(token)
	if !cred.IsValid(s.nowTime()) {
		log.Debug().Msg("Restore: persisted token expired or undecodable")
		s.Clear()
		return false
	}

	var identity *users.Identity
	if raw, found, err := s.repo.Get(UserKey); err != nil {
		log.Err(err).Msg("Restore: failed to read persisted user")
		s.Clear()
		return false
	} else if found && raw != "" {
		identity = &users.Identity{}
		if err := json.Unmarshal([]byte(raw), identity); err != nil {
			log.Err(err).Msg("Restore: persisted user is corrupt")
			s.Clear()
			return false
		}
	}

	s.writeMu.Lock()
	s.mu.Lock()
	s.current = &snapshot{credential: cred, identity: identity}
	s.mu.Unlock()
	s.writeMu.Unlock()
	return true
}

// Login authenticates against the endpoint for class. Persisted state is
// only written on success.
func (s *Store) Login(ctx context.Context, identifier, secret string, class users.PrincipalClass) LoginResult {
	if strings.TrimSpace(identifier) == "" || secret == "" {
		return failedLogin(errors.Wrap(apierrors.ErrInvalidCredentials, "[Login] identifier and secret are required"))
	}

	grant, err := s.auth.Login(ctx, class, identifier, secret)
	if err != nil {
		log.Err(err).Str("class", string(class)).Msg("Login failed")
		return failedLogin(err)
	}

	if grant.Identity != nil {
		if roleClass := grant.Identity.Role.PrincipalClass(); roleClass != "" && roleClass != class {
			err := errors.Wrapf(apierrors.ErrWrongRoleEndpoint, "[Login] %s role signed in through the %s endpoint", grant.Identity.Role, class)
			log.Warn().Err(err).Msg("Login rejected")
			return failedLogin(err)
		}
	}

	if err := s.Install(grant); err != nil {
		// The session is usable for this process even if it could not be saved.
		log.Err(err).Msg("Login: failed to persist session")
	}

	identity, _ := s.Identity()
	return LoginResult{Success: true, Identity: &identity}
}

func failedLogin(err error) LoginResult {
	return LoginResult{Message: apierrors.UserMessage(err), Err: err}
}

// Logout notifies the server on a best-effort basis and always clears the
// session. Calling it while anonymous only clears persisted state.
func (s *Store) Logout(ctx context.Context) {
	if cred, ok := s.Credential(); ok {
		if err := s.auth.Logout(ctx, cred); err != nil {
			log.Err(err).Msg("Logout: server notification failed")
		}
	}
	s.Clear()
}

// Install starts a new session from grant and persists it. The in-memory
// swap happens even if persisting fails.
func (s *Store) Install(grant *Grant) error {
	_, err := s.install(grant, nil)
	return err
}

// Renew installs a refreshed grant, keeping the held identity when the grant
// has none. It installs nothing and returns false if a login or a clear
// happened since epoch was read.
func (s *Store) Renew(epoch uint64, grant *Grant) (bool, error) {
	return s.install(grant, &epoch)
}

// Epoch identifies the current session for Renew.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Store) install(grant *Grant, expected *uint64) (bool, error) {
	if grant == nil || grant.Credential.Token == "" {
		return false, errors.New("[install] grant has no credential")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if expected != nil && *expected != s.epoch {
		s.mu.Unlock()
		return false, nil
	}
	next := &snapshot{credential: grant.Credential, identity: grant.Identity}
	if next.identity == nil && s.current != nil {
		next.identity = s.current.identity
	}
	if expected == nil {
		s.epoch++
	}
	s.current = next
	s.mu.Unlock()

	return true, s.persist(next)
}

func (s *Store) persist(snap *snapshot) error {
	entries := map[string]string{TokenKey: snap.credential.Token}
	if snap.identity != nil {
		data, err := json.Marshal(snap.identity)
		if err != nil {
			return errors.Wrap(err, "[persist] marshal identity")
		}
		entries[UserKey] = string(data)
	}
	if err := kvstore.SetAll(s.repo, entries); err != nil {
		return errors.Wrap(err, "[persist] write session")
	}
	if snap.identity == nil {
		if err := s.repo.Delete(UserKey); err != nil {
			return errors.Wrap(err, "[persist] remove stale user")
		}
	}
	return nil
}

// Clear drops the in-memory and persisted session.
func (s *Store) Clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.clearLocked()
}

// clearLocked requires writeMu.
func (s *Store) clearLocked() {
	s.mu.Lock()
	s.current = nil
	s.epoch++
	s.mu.Unlock()

	if err := kvstore.DeleteAll(s.repo, TokenKey, UserKey); err != nil {
		log.Err(err).Msg("Clear: failed to remove persisted session")
	}
}

// IsTokenValid decodes token and compares its expiry with the store's clock.
func (s *Store) IsTokenValid(token string) bool {
	return credential.IsTokenValid(token, s.nowTime())
}

// IsAuthenticated reports whether a credential is held and not expired.
func (s *Store) IsAuthenticated() bool {
	cred, ok := s.Credential()
	return ok && cred.IsValid(s.nowTime())
}

// CheckAuth is the route guard reconciliation step. An expired credential is
// cleared; no refresh is attempted. A credential installed while the check
// runs is kept.
func (s *Store) CheckAuth() bool {
	cred, ok := s.Credential()
	if !ok {
		return false
	}
	now := s.nowTime()
	if cred.IsValid(now) {
		return true
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	current, ok := s.Credential()
	if !ok {
		return false
	}
	if current.Token != cred.Token {
		return current.IsValid(now)
	}
	log.Debug().Msg("CheckAuth: clearing expired credential")
	s.clearLocked()
	return false
}

// Credential returns the current credential, if any.
func (s *Store) Credential() (credential.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return credential.Credential{}, false
	}
	return s.current.credential, true
}

// Identity returns a copy of the current identity, if any.
func (s *Store) Identity() (users.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.identity == nil {
		return users.Identity{}, false
	}
	return *s.current.identity, true
}

// Token implements oauth2.TokenSource. It never refreshes.
func (s *Store) Token() (*oauth2.Token, error) {
	cred, ok := s.Credential()
	if !ok {
		return nil, apierrors.ErrNotAuthenticated
	}
	return cred.OAuth2Token(), nil
}
