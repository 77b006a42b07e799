// Package cache stores per-file extraction results between runs, keyed by
// file path and validated against a content hash.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Cache is a directory of JSON entries, one per analyzed file. A disabled
// cache is valid and misses on every lookup.
type Cache struct {
	dir     string
	enabled bool
}

// Entry is one cached record. Hash is the BLAKE3 hash of the source file it
// was derived from.
type Entry struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New opens a cache rooted at dir, creating it if needed.
func New(dir string, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, enabled: true}, nil
}

// HashFile computes the BLAKE3 content hash used for entry validation.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes computes a BLAKE3 hash as a hex string.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached data for key if present and the content hash still
// matches. Stale entries are removed on read.
func (c *Cache) Get(key, hash string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		os.Remove(path)
		return nil, false
	}
	if entry.Hash != hash {
		os.Remove(path)
		return nil, false
	}
	return entry.Data, true
}

// Set stores data under key with its content hash.
func (c *Cache) Set(key, hash string, data []byte) error {
	if !c.enabled {
		return nil
	}
	entry, err := json.Marshal(Entry{
		Hash:      hash,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), entry, 0o600)
}

// Invalidate removes the entry for key.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath maps a key to a filename. Keys are file paths, so they are hashed
// rather than embedded. xxhash is enough here; collisions only cost a
// false miss after the content hash check.
func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(key)))
}

// Stats summarizes the cache directory.
type Stats struct {
	Entries   int   `json:"entries"`
	TotalSize int64 `json:"total_size"`
}

// GetStats walks the cache directory and counts entries.
func (c *Cache) GetStats() (*Stats, error) {
	stats := &Stats{}
	if !c.enabled {
		return stats, nil
	}

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
