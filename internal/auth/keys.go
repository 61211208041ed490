package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrUnknownKey      = errors.New("signing key not found")
	ErrKeysUnavailable = errors.New("signing keys unavailable")
)

type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// StaticKeys serves a fixed kid -> key set.
type StaticKeys map[string]*rsa.PublicKey

func (s StaticKeys) PublicKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

const (
	maxCachedKeys = 64

	// minRefetchInterval bounds how often kids missing from the cache can make
	// the source go back to the identity provider.
	minRefetchInterval = 30 * time.Second
)

// CertSource fetches a JSON object of kid -> PEM certificate (or PKIX public
// key) from the identity provider and caches the parsed keys for ttl. A kid
// missing from the cache triggers a refetch only once the previous set has
// aged past its Cache-Control max-age (capped at ttl); until then it is
// reported as ErrUnknownKey.
type CertSource struct {
	url    string
	ttl    time.Duration
	client *http.Client
	cache  *expirable.LRU[string, *rsa.PublicKey]
	now    func() time.Time

	mu        sync.Mutex
	nextFetch time.Time
	lastErr   error
}

func NewCertSource(url string, ttl time.Duration, client *http.Client) *CertSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &CertSource{
		url:    url,
		ttl:    ttl,
		client: client,
		cache:  expirable.NewLRU[string, *rsa.PublicKey](maxCachedKeys, nil, ttl),
		now:    time.Now,
	}
}

func (c *CertSource) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := c.cache.Get(kid); ok {
		return key, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.cache.Get(kid); ok {
		return key, nil
	}
	if c.now().Before(c.nextFetch) {
		if c.lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, c.lastErr)
		}
		return nil, ErrUnknownKey
	}

	keys, age, err := c.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.lastErr = err
			c.nextFetch = c.now().Add(c.refetchFloor())
		}
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	c.lastErr = nil
	c.nextFetch = c.now().Add(c.refetchAfter(age))
	for id, key := range keys {
		c.cache.Add(id, key)
	}

	key, ok := keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

// refetchAfter never exceeds ttl, so a cached key is always refetchable by the
// time it expires.
func (c *CertSource) refetchAfter(age time.Duration) time.Duration {
	after := c.ttl
	if age > 0 && age < after {
		after = age
	}
	return max(after, c.refetchFloor())
}

func (c *CertSource) refetchFloor() time.Duration {
	return min(minRefetchInterval, c.ttl)
}

func (c *CertSource) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetch certs: unexpected status %d", resp.StatusCode)
	}

	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("decode certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(raw))
	for kid, pemData := range raw {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
		if err != nil {
			return nil, 0, fmt.Errorf("parse key %q: %w", kid, err)
		}
		keys[kid] = key
	}
	return keys, maxAge(resp.Header.Get("Cache-Control")), nil
}

// maxAge returns the max-age directive of a Cache-Control header, or zero.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		value, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(directive)), "max-age=")
		if !ok {
			continue
		}
		secs, err := strconv.Atoi(value)
		if err != nil || secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	return 0
}
