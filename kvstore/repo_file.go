package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	_ Repo       = (*FileRepo)(nil)
	_ SetMany    = (*FileRepo)(nil)
	_ DeleteMany = (*FileRepo)(nil)
)

// FileRepo keeps all entries in one JSON object on disk. Writes go to a
// temporary file that is renamed over the original.
type FileRepo struct {
	mu   sync.Mutex
	path string
}

// NewFileRepo returns a repo backed by path. The parent directory is created
// with 0700 permissions if it does not exist.
func NewFileRepo(path string) (*FileRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileRepo{path: path}, nil
}

// Path returns the backing file path.
func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Get(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return "", false, err
	}
	value, ok := entries[key]
	return value, ok, nil
}

func (r *FileRepo) Set(key, value string) error {
	return r.SetMany(map[string]string{key: value})
}

func (r *FileRepo) SetMany(updates map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	for key, value := range updates {
		if key == "" {
			return fmt.Errorf("key is required")
		}
		entries[key] = value
	}
	return r.save(entries)
}

func (r *FileRepo) Delete(key string) error {
	return r.DeleteMany(key)
}

func (r *FileRepo) DeleteMany(keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(entries, key)
	}
	if len(entries) == 0 {
		if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove state file: %w", err)
		}
		return nil
	}
	return r.save(entries)
}

func (r *FileRepo) load() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	entries := make(map[string]string)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", r.path, err)
	}
	return entries, nil
}

func (r *FileRepo) save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
