package internal

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tt "github.com/gnolang/eql/internal/types"
)

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

type CacheEntry struct {
	Metadata  fileMetadata
	Issues    []tt.Issue
	CreatedAt time.Time
}

// Cache keeps the issues of files whose content has not changed since they
// were checked.
type Cache struct {
	entries map[string]CacheEntry
	mutex   sync.Mutex
	maxAge  time.Duration
}

// NewCache creates a cache whose entries expire after maxAge. Zero keeps
// entries until their file changes.
func NewCache(maxAge time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		maxAge:  maxAge,
	}
}

func (c *Cache) Set(filename string, issues []tt.Issue) error {
	metadata, err := getFileMetadata(filename)
	if err != nil {
		return fmt.Errorf("failed to get file metadata: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[filename] = CacheEntry{
		Metadata:  metadata,
		Issues:    issues,
		CreatedAt: time.Now(),
	}
	return nil
}

// Get returns the cached issues of filename unless the file changed or the
// entry expired.
func (c *Cache) Get(filename string) ([]tt.Issue, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}

	if c.isEntryInvalid(filename, entry) {
		delete(c.entries, filename)
		return nil, false
	}
	return entry.Issues, true
}

func (c *Cache) isEntryInvalid(filename string, entry CacheEntry) bool {
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}

	currentMetadata, err := getFileMetadata(filename)
	return err != nil || currentMetadata != entry.Metadata
}

func (c *Cache) Invalidate(filename string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, filename)
}

func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]CacheEntry)
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to get file info: %w", err)
	}

	return fileMetadata{
		Hash:         fmt.Sprintf("%x", hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}
