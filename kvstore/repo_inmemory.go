package kvstore

import (
	"fmt"
	"sync"
)

var (
	_ Repo       = (*InMemoryRepo)(nil)
	_ SetMany    = (*InMemoryRepo)(nil)
	_ DeleteMany = (*InMemoryRepo)(nil)
)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewInMemoryRepo creates a new in-memory key/value repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		entries: make(map[string]string),
	}
}

func (r *InMemoryRepo) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[key]
	return value, ok, nil
}

func (r *InMemoryRepo) Set(key, value string) error {
	return r.SetMany(map[string]string{key: value})
}

func (r *InMemoryRepo) SetMany(entries map[string]string) error {
	for key := range entries {
		if key == "" {
			return fmt.Errorf("key is required")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, value := range entries {
		r.entries[key] = value
	}
	return nil
}

func (r *InMemoryRepo) Delete(key string) error {
	return r.DeleteMany(key)
}

func (r *InMemoryRepo) DeleteMany(keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		delete(r.entries, key)
	}
	return nil
}

// Len returns the number of stored entries.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
