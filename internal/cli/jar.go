package cli

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/kvstore"
	"github.com/rs/zerolog/log"
)

// CookiesKey is the state file entry holding the persisted cookies.
const CookiesKey = "cookies"

type savedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// persistentJar is a cookie jar for a single API origin that survives
// between CLI runs. The refresh cookie set at login would otherwise be lost
// when the process exits.
type persistentJar struct {
	*cookiejar.Jar
	origin *url.URL
	repo   kvstore.Repo

	mu    sync.Mutex
	saved map[string]savedCookie // by name
}

func newPersistentJar(origin *url.URL, repo kvstore.Repo) (*persistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &persistentJar{Jar: jar, origin: origin, repo: repo, saved: make(map[string]savedCookie)}
	j.load()
	return j, nil
}

func (j *persistentJar) load() {
	raw, found, err := j.repo.Get(CookiesKey)
	if err != nil || !found || raw == "" {
		return
	}
	var cookies []savedCookie
	if err := json.Unmarshal([]byte(raw), &cookies); err != nil {
		log.Warn().Err(err).Msg("Ignoring corrupt persisted cookies")
		return
	}

	now := time.Now()
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		j.saved[c.Name] = c
		restored = append(restored, &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	j.Jar.SetCookies(j.origin, restored)
}

// SetCookies records the cookies in the jar and persists them. A cookie the
// server deletes is removed from the state file too.
func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.saved, c.Name)
			continue
		}
		saved := savedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires}
		if c.MaxAge > 0 {
			saved.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.saved[c.Name] = saved
	}
	j.persist()
}

func (j *persistentJar) persist() {
	if len(j.saved) == 0 {
		if err := j.repo.Delete(CookiesKey); err != nil {
			log.Warn().Err(err).Msg("Failed to remove persisted cookies")
		}
		return
	}
	cookies := make([]savedCookie, 0, len(j.saved))
	for _, c := range j.saved {
		cookies = append(cookies, c)
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode cookies")
		return
	}
	if err := j.repo.Set(CookiesKey, string(data)); err != nil {
		log.Warn().Err(err).Msg("Failed to persist cookies")
	}
}
