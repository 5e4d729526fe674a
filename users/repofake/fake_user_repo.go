package fakeuserrepo

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users       map[string]*users.User
	usernameIds map[string]string // username to user id
	lock        sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:       make(map[string]*users.User),
		usernameIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	if user.Username == "" {
		return errors.New("username is required")
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	ur.users[user.ID] = user
	ur.usernameIds[user.Username] = user.ID
	return nil
}

func (ur *FakeUserRepo) Delete(username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	userID, ok := ur.usernameIds[username]
	if !ok {
		return errors.New("not found")
	}
	delete(ur.usernameIds, username)
	delete(ur.users, userID)
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernameIds[username]
	if !ok {
		return nil, errors.New("not found")
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, errors.New("not found")
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) List(offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		userList = append(userList, v)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Username < userList[j].Username
	})

	if offset >= len(userList) {
		return nil, nil
	}
	end := len(userList)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return userList[offset:end], nil
}

func (ur *FakeUserRepo) SetLastLogin(username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.usernameIds[username]
	if !ok {
		return errors.New("not found")
	}
	ur.users[id].LastLogin = time.Now()
	return nil
}
