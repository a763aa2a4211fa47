package cache

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := url.Values{}
	base.Set("identifier", "tenant-a")
	base.Set("secret", "s1")
	base.Set("limitstart", "0")

	fp := Fingerprint("https://api.example.net", "GetClientsDomains", base)
	assert.Len(t, fp, 64)

	t.Run("stable across parameter insertion order", func(t *testing.T) {
		t.Parallel()
		reordered := url.Values{}
		reordered.Set("limitstart", "0")
		reordered.Set("secret", "s1")
		reordered.Set("identifier", "tenant-a")
		assert.Equal(t, fp, Fingerprint("https://api.example.net", "GetClientsDomains", reordered))
	})

	t.Run("distinguishes tenants", func(t *testing.T) {
		t.Parallel()
		other := url.Values{}
		other.Set("identifier", "tenant-b")
		other.Set("secret", "s2")
		other.Set("limitstart", "0")
		assert.NotEqual(t, fp, Fingerprint("https://api.example.net", "GetClientsDomains", other))
	})

	t.Run("distinguishes actions and endpoints", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, fp, Fingerprint("https://api.example.net", "DomainGetNameservers", base))
		assert.NotEqual(t, fp, Fingerprint("https://other.example.net", "GetClientsDomains", base))
	})
}

// newTestFileCache returns a file cache with a controllable clock
func newTestFileCache(t *testing.T) (*FileCache, *time.Time) {
	t.Helper()
	fc, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	now := time.Now()
	fc.now = func() time.Time { return now }
	return fc, &now
}

func TestFileCacheRoundTrip(t *testing.T) {
	t.Parallel()

	fc, _ := newTestFileCache(t)
	payload := []byte(`{"result":"success"}`)

	require.NoError(t, fc.Put("abc123", payload, time.Minute))

	got, ok := fc.Get("abc123")
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))

	_, ok = fc.Get("missing")
	assert.False(t, ok)
}

func TestFileCacheExpiry(t *testing.T) {
	t.Parallel()

	fc, now := newTestFileCache(t)
	require.NoError(t, fc.Put("abc123", []byte(`{"result":"success"}`), time.Minute))

	// Advance past the TTL: Stats must count the entry as expired before
	// any Get touches it
	*now = now.Add(2 * time.Minute)

	stats := fc.Stats()
	assert.Equal(t, int64(1), stats.TotalEntries)
	assert.Equal(t, int64(1), stats.ExpiredCount)

	// The expired entry behaves as a miss and is purged
	_, ok := fc.Get("abc123")
	assert.False(t, ok)

	stats = fc.Stats()
	assert.Equal(t, int64(0), stats.TotalEntries)
}

func TestFileCacheStats(t *testing.T) {
	t.Parallel()

	fc, now := newTestFileCache(t)
	require.NoError(t, fc.Put("live1", []byte(`{"a":1}`), time.Hour))
	require.NoError(t, fc.Put("live2", []byte(`{"b":2}`), time.Hour))
	require.NoError(t, fc.Put("short", []byte(`{"c":3}`), time.Second))

	*now = now.Add(time.Minute)

	stats := fc.Stats()
	assert.Equal(t, int64(3), stats.TotalEntries)
	assert.Equal(t, int64(1), stats.ExpiredCount)
	assert.Positive(t, stats.TotalSizeBytes)
}

func TestFileCacheClear(t *testing.T) {
	t.Parallel()

	fc, _ := newTestFileCache(t)

	// Clearing an empty cache never errors
	require.NoError(t, fc.Clear())

	require.NoError(t, fc.Put("one", []byte(`{}`), time.Hour))
	require.NoError(t, fc.Put("two", []byte(`{}`), time.Hour))
	require.NoError(t, fc.Clear())

	stats := fc.Stats()
	assert.Equal(t, int64(0), stats.TotalEntries)
	_, ok := fc.Get("one")
	assert.False(t, ok)
}

func TestFileCachePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fc, err := NewFileCache(dir)
	require.NoError(t, err)
	require.NoError(t, fc.Put("abc", []byte(`{"result":"success"}`), time.Hour))

	reopened, err := NewFileCache(dir)
	require.NoError(t, err)
	got, ok := reopened.Get("abc")
	require.True(t, ok)
	assert.JSONEq(t, `{"result":"success"}`, string(got))
}

func TestMemoryCacheSemantics(t *testing.T) {
	t.Parallel()

	mc := NewMemoryCache()
	now := time.Now()
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Put("k", []byte(`{"x":1}`), time.Minute))

	got, ok := mc.Get("k")
	require.True(t, ok)
	assert.Equal(t, `{"x":1}`, string(got))

	now = now.Add(2 * time.Minute)

	stats := mc.Stats()
	assert.Equal(t, int64(1), stats.TotalEntries)
	assert.Equal(t, int64(1), stats.ExpiredCount)

	_, ok = mc.Get("k")
	assert.False(t, ok)

	require.NoError(t, mc.Clear())
	assert.Equal(t, int64(0), mc.Stats().TotalEntries)
}
