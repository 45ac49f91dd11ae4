package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	logger, _ := test.NewNullLogger()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"), ttl, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachePutGet(t *testing.T) {
	c := openTestCache(t, 0)

	_, ok, err := c.Get("list:linux-amd64")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("list:linux-amd64", []byte(`{"releases":{}}`)))
	require.NoError(t, c.Put("list:linux-amd64:legacy", []byte(`legacy`)))

	v, ok, err := c.Get("list:linux-amd64")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"releases":{}}`, string(v))

	require.NoError(t, c.Put("list:linux-amd64", []byte(`updated`)))
	v, ok, err = c.Get("list:linux-amd64")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "updated", string(v))

	// keys sharing a prefix are independent
	v, ok, err = c.Get("list:linux-amd64:legacy")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "legacy", string(v))
}

func TestCacheExpiration(t *testing.T) {
	c := openTestCache(t, time.Hour)
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }

	require.NoError(t, c.Put("key", []byte("value")))

	c.now = func() time.Time { return start.Add(30 * time.Minute) }
	_, ok, err := c.Get("key")
	require.NoError(t, err)
	assert.True(t, ok)

	c.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, ok, err = c.Get("key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := openTestCache(t, 0)
	require.NoError(t, c.Put("a", []byte("1")))
	require.NoError(t, c.Put("b", []byte("2")))

	require.NoError(t, c.Clear())

	for _, key := range []string{"a", "b"} {
		_, ok, err := c.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestCachePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path, 0, nil)
	require.NoError(t, err)
	require.NoError(t, c.Put("key", []byte("value")))
	require.NoError(t, c.Close())

	c, err = Open(path, 0, logrus.New())
	require.NoError(t, err)
	defer c.Close()
	v, ok, err := c.Get("key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", string(v))
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Open(filepath.Join(file, "cache.db"), 0, nil)
	assert.Error(t, err)
}
