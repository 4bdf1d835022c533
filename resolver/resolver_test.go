package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrydata/foundrydata-sub008/internal/fderr"
)

func TestHTTPResolverFetchesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"object"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver()
	data, err := r.Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"object"}`, string(data))
}

func TestHTTPResolverRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewHTTPResolver()
	_, err := r.Resolve(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestHTTPResolverCachesToDisk(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"type":"string"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	r := NewHTTPResolver(WithCacheDir(dir))

	_, err := r.Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.FileExists(t, filepath.Join(dir, "snapshot.ndjson"))
}

func TestHTTPResolverDedupsConcurrentFetches(t *testing.T) {
	var hits int32
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-block
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Resolve(context.Background(), srv.URL)
		}()
	}
	close(block)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPResolverRejectsNonAllowlistedHost(t *testing.T) {
	r := NewHTTPResolver(WithHostAllowlist("example.com"))
	_, err := r.Resolve(context.Background(), "https://evil.test/schema.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fderr.ErrHostNotAllowlisted))
}

func TestHTTPResolverRejectsOversizedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", maxDocumentBytes+1)))
	}))
	defer srv.Close()

	r := NewHTTPResolver()
	_, err := r.Resolve(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fderr.ErrDocumentTooLarge))
}

func TestSnapshotFingerprintLineIsAppended(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.ndjson")
	require.NoError(t, appendSnapshotLine(path, "https://a", "keyA"))
	require.NoError(t, appendSnapshotLine(path, "https://b", "keyB"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fingerprint"`)
}
