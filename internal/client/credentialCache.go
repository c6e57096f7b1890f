package client

import (
	"sync"
	"time"
)

// tokenSafetyMargin is subtracted from the recorded expiry so a token is
// never handed out moments before the provider stops accepting it.
const tokenSafetyMargin = 60 * time.Second

// defaultTokenTTL applies when the provider omits expires_in.
const defaultTokenTTL = 3600 * time.Second

// CredentialCache holds the bKash bearer token shared by all gateway calls
// in this process. The mutex guards only the fields; it is never held
// across a network call, so concurrent callers may refresh redundantly.
// The provider treats that as harmless.
type CredentialCache struct {
	mu           sync.Mutex
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func NewCredentialCache() *CredentialCache {
	return &CredentialCache{}
}

// Valid returns the cached token when it is still inside the safety margin.
func (c *CredentialCache) Valid(now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idToken == "" || !now.Before(c.expiresAt.Add(-tokenSafetyMargin)) {
		return "", false
	}
	return c.idToken, true
}

// RefreshToken returns the held refresh token, empty before first grant.
func (c *CredentialCache) RefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

// Store records a freshly acquired token set.
func (c *CredentialCache) Store(idToken, refreshToken string, expiresIn int64, now time.Time) {
	ttl := defaultTokenTTL
	if expiresIn > 0 {
		ttl = time.Duration(expiresIn) * time.Second
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.idToken = idToken
	if refreshToken != "" {
		c.refreshToken = refreshToken
	}
	c.expiresAt = now.Add(ttl)
}
