package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// keysetCacheTTL bounds how long a fetched key set is served from memory.
	keysetCacheTTL = 10 * time.Minute

	// keysetCacheSize bounds cache entries; providers rotate among a
	// handful of keys, so a small cache suffices.
	keysetCacheSize = 8

	// keysetFailureWindow is the grace period during which fetch failures
	// are reported as transient (server error) rather than terminal
	// (unauthorized).
	keysetFailureWindow = 30 * time.Second

	keysetFetchTimeout = 10 * time.Second
)

const keysetCacheKey = "jwks"

// KeysetCache fetches the identity provider's signing keys from its
// well-known endpoint and serves them from a bounded TTL cache. Readers
// proceed concurrently; a single fetch at a time refreshes the cache
// while others serve the last-known value.
type KeysetCache struct {
	url        string
	httpClient *http.Client

	cache *expirable.LRU[string, *jose.JSONWebKeySet]

	mu           sync.Mutex
	failingSince time.Time
	now          func() time.Time
}

// KeysetOption customises KeysetCache construction.
type KeysetOption func(*KeysetCache)

// WithKeysetURL overrides the well-known JWKS URL (tests point this at a
// local server).
func WithKeysetURL(url string) KeysetOption {
	return func(c *KeysetCache) { c.url = url }
}

// WithKeysetHTTPClient overrides the HTTP client used for fetches.
func WithKeysetHTTPClient(client *http.Client) KeysetOption {
	return func(c *KeysetCache) { c.httpClient = client }
}

// NewKeysetCache constructs a cache for the given identity provider domain.
func NewKeysetCache(domain string, opts ...KeysetOption) *KeysetCache {
	c := &KeysetCache{
		url:        fmt.Sprintf("https://%s/.well-known/jwks.json", domain),
		httpClient: &http.Client{Timeout: keysetFetchTimeout},
		cache:      expirable.NewLRU[string, *jose.JSONWebKeySet](keysetCacheSize, nil, keysetCacheTTL),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the public key with the given key ID.
//
// Fetch failures within the failure window surface as
// ErrKeysetUnavailable; past the window they degrade to ErrTokenInvalid
// so persistent outages reject credentials instead of masking them as
// server faults.
func (c *KeysetCache) Key(kid string) (any, error) {
	keyset, ok := c.cache.Get(keysetCacheKey)
	if !ok {
		fetched, err := c.fetch()
		if err != nil {
			return nil, c.classifyFailure(err)
		}
		c.clearFailure()
		c.cache.Add(keysetCacheKey, fetched)
		keyset = fetched
	}

	keys := keyset.Key(kid)
	if len(keys) == 0 {
		// Key rotation may have outrun the cache; refetch once.
		fetched, err := c.fetch()
		if err != nil {
			return nil, c.classifyFailure(err)
		}
		c.clearFailure()
		c.cache.Add(keysetCacheKey, fetched)
		keys = fetched.Key(kid)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no key with id %q", ErrTokenInvalid, kid)
	}

	return keys[0].Key, nil
}

// Probe reports whether a key set is currently servable, fetching when
// the cache is cold. The system health endpoint uses it to surface
// identity provider reachability.
func (c *KeysetCache) Probe() error {
	if _, ok := c.cache.Get(keysetCacheKey); ok {
		return nil
	}
	fetched, err := c.fetch()
	if err != nil {
		return err
	}
	c.clearFailure()
	c.cache.Add(keysetCacheKey, fetched)
	return nil
}

// Purge drops the cached key set; the next verification refetches.
func (c *KeysetCache) Purge() {
	c.cache.Purge()
}

func (c *KeysetCache) fetch() (*jose.JSONWebKeySet, error) {
	resp, err := c.httpClient.Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key set: unexpected status %d", resp.StatusCode)
	}

	var keyset jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keyset); err != nil {
		return nil, fmt.Errorf("decode key set: %w", err)
	}
	return &keyset, nil
}

func (c *KeysetCache) classifyFailure(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.failingSince.IsZero() {
		c.failingSince = now
	}
	if now.Sub(c.failingSince) <= keysetFailureWindow {
		return fmt.Errorf("%w: %v", ErrKeysetUnavailable, err)
	}
	return fmt.Errorf("%w: key set unreachable since %s: %v", ErrTokenInvalid, c.failingSince.Format(time.RFC3339), err)
}

func (c *KeysetCache) clearFailure() {
	c.mu.Lock()
	c.failingSince = time.Time{}
	c.mu.Unlock()
}
