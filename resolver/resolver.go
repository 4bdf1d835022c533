// Package resolver fetches external $ref targets over HTTP(S), grounded
// on the teacher's Compiler.setupLoaders default HTTP loader
// (compiler.go), generalized with an on-disk cache and
// golang.org/x/sync/singleflight request deduplication so concurrent
// generation runs sharing a schema document never issue the same fetch
// twice. The cache file name is the sha256 of the URL alone (not of the
// response body), and entries are written in place with os.WriteFile,
// not through a temporary file and rename.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/foundrydata/foundrydata-sub008/internal/fderr"
)

// Resolver fetches the bytes behind an external $ref URL.
type Resolver interface {
	Resolve(ctx context.Context, url string) ([]byte, error)
}

// HTTPResolver is the default Resolver, mirroring the teacher's
// defaultHTTPLoader: a plain GET with a timeout, rejecting non-200
// responses, wrapped with an on-disk cache keyed by URL hash and
// singleflight dedup.
type HTTPResolver struct {
	client    *http.Client
	cacheDir  string
	group     singleflight.Group
	allowlist map[string]bool
}

// Option configures an HTTPResolver.
type Option func(*HTTPResolver)

// WithTimeout overrides the default 10s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *HTTPResolver) { r.client.Timeout = d }
}

// WithCacheDir enables an on-disk cache, keyed by URL hash, under dir.
func WithCacheDir(dir string) Option {
	return func(r *HTTPResolver) { r.cacheDir = dir }
}

// WithHostAllowlist restricts fetches to the given set of hosts.
func WithHostAllowlist(hosts ...string) Option {
	return func(r *HTTPResolver) {
		r.allowlist = make(map[string]bool, len(hosts))
		for _, h := range hosts {
			r.allowlist[h] = true
		}
	}
}

// NewHTTPResolver constructs an HTTPResolver with a 10 second default
// timeout, matching the teacher's setupLoaders.
func NewHTTPResolver(opts ...Option) *HTTPResolver {
	r := &HTTPResolver{client: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches url, consulting the on-disk cache first and
// deduplicating concurrent identical requests via singleflight.
func (r *HTTPResolver) Resolve(ctx context.Context, url string) ([]byte, error) {
	if r.allowlist != nil {
		host, err := hostOf(url)
		if err != nil || !r.allowlist[host] {
			return nil, fmt.Errorf("resolver: %w: %q", fderr.ErrHostNotAllowlisted, host)
		}
	}

	key := cacheKey(url)
	if r.cacheDir != "" {
		if data, ok := r.readCache(key); ok {
			return data, nil
		}
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.fetch(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	data := v.([]byte)

	if r.cacheDir != "" {
		_ = r.writeCache(key, url, data)
	}
	return data, nil
}

func (r *HTTPResolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver: fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("resolver: read body for %s: %w", url, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("resolver: %w: %s", fderr.ErrDocumentTooLarge, url)
	}
	return data, nil
}

// maxDocumentBytes bounds a single fetched document, matching the
// resolver policy's documentTooLarge guard.
const maxDocumentBytes = 8 << 20

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (r *HTTPResolver) readCache(key string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(r.cacheDir, key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (r *HTTPResolver) writeCache(key, url string, data []byte) error {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(r.cacheDir, key), data, 0o644); err != nil {
		return err
	}
	return appendSnapshotLine(filepath.Join(r.cacheDir, "snapshot.ndjson"), url, key)
}

func hostOf(rawurl string) (string, error) {
	u, err := parseHost(rawurl)
	if err != nil {
		return "", err
	}
	return u, nil
}
