package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnolang/eql/internal/types"
)

func TestCache(t *testing.T) {
	t.Parallel()

	tmpDir := createTempDir(t, "cache-test")
	cache := NewCache(0)
	issues := []tt.Issue{{Rule: "clause-type", Filename: "q.json", Message: "test issue"}}

	t.Run("SetAndGet", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "q.json")
		require.NoError(t, os.WriteFile(filename, []byte(`{"size": "1"}`), 0o644))

		require.NoError(t, cache.Set(filename, issues))
		got, found := cache.Get(filename)
		assert.True(t, found)
		assert.Equal(t, issues, got)

		cache.Invalidate(filename)
		_, found = cache.Get(filename)
		assert.False(t, found)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get("nonexistent.json")
		assert.False(t, found)
		assert.Error(t, cache.Set(filepath.Join(tmpDir, "nonexistent.json"), nil))
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "modified.json")
		require.NoError(t, os.WriteFile(filename, []byte(`{}`), 0o644))
		require.NoError(t, cache.Set(filename, issues))

		require.NoError(t, os.WriteFile(filename, []byte(`{"size": 1}`), 0o644))
		_, found := cache.Get(filename)
		assert.False(t, found)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "all.json")
		require.NoError(t, os.WriteFile(filename, []byte(`{}`), 0o644))
		require.NoError(t, cache.Set(filename, issues))

		cache.InvalidateAll()
		_, found := cache.Get(filename)
		assert.False(t, found)
	})
}

func TestCacheMaxAge(t *testing.T) {
	t.Parallel()

	filename := filepath.Join(createTempDir(t, "cache-test"), "q.json")
	require.NoError(t, os.WriteFile(filename, []byte(`{}`), 0o644))

	cache := NewCache(time.Nanosecond)
	require.NoError(t, cache.Set(filename, nil))
	time.Sleep(time.Millisecond)
	_, found := cache.Get(filename)
	assert.False(t, found)
}
