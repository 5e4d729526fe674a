package kvstore

// Repo is the local key/value store the session state is persisted in.
// Implementations must be safe for concurrent use.
type Repo interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (value string, found bool, err error)

	// Set stores value under key, overwriting any existing value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// SetMany writes several entries. File backed repos implement it as a
// single write so related keys are persisted together.
type SetMany interface {
	SetMany(entries map[string]string) error
}

// DeleteMany removes several keys together.
type DeleteMany interface {
	DeleteMany(keys ...string) error
}

// SetAll writes entries through SetMany when the repo supports it,
// otherwise one key at a time.
func SetAll(repo Repo, entries map[string]string) error {
	if m, ok := repo.(SetMany); ok {
		return m.SetMany(entries)
	}
	for k, v := range entries {
		if err := repo.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll removes keys through DeleteMany when the repo supports it,
// otherwise one key at a time.
func DeleteAll(repo Repo, keys ...string) error {
	if m, ok := repo.(DeleteMany); ok {
		return m.DeleteMany(keys...)
	}
	for _, k := range keys {
		if err := repo.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
