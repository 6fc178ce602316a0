// Package cache implements the content cache of spec.md §4.4: a transform's
// output is cached under a composite key so re-running the pipeline over an
// unchanged file with an unchanged transformer/options set skips the work.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/xxh3"
)

// Entry is one cached transform result.
type Entry struct {
	Key     string `json:"key"`
	Content string `json:"content"`
}

// Cache stores transform results keyed by transformer identity, absolute
// path, content hash, and options hash. A miss is never an error: every
// caller treats a cache failure as "recompute", per spec.md §4.4.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	dir     string // on-disk persistence directory, empty disables persistence
}

// New creates an in-memory cache with no on-disk persistence.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// NewWithDir creates a cache that persists entries as one JSON file per key
// under dir, loading any existing entries found there. A load failure for an
// individual file is skipped rather than failing the whole cache.
func NewWithDir(dir string) (*Cache, error) {
	c := &Cache{entries: make(map[string]Entry), dir: dir}
	if dir == "" {
		return c, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		c.entries[e.Key] = e
	}
	return c, nil
}

// HashContent returns the XXH3 hash of content, used both to populate
// FileEntry.ContentHash and as one of the three cache key components.
func HashContent(content []byte) uint64 {
	return xxh3.Hash(content)
}

// HashOptions returns a stable hash of an options value (typically a
// transformer's resolved option map) by hashing its canonical JSON encoding.
// A marshal failure (unsupported type) yields the zero hash rather than an
// error, since the caller degrades to "no options" on cache-key purposes.
func HashOptions(options any) uint64 {
	if options == nil {
		return 0
	}
	data, err := json.Marshal(options)
	if err != nil {
		return 0
	}
	return xxh3.Hash(data)
}

// Key computes the composite cache key: sha256 over the transformer
// identity, absolute path, content hash, and options hash, joined with a
// separator byte that cannot appear in any component.
func Key(transformerIdentity, absPath string, contentHash, optionsHash uint64) string {
	h := sha256.New()
	h.Write([]byte(transformerIdentity))
	h.Write([]byte{0})
	h.Write([]byte(absPath))
	h.Write([]byte{0})
	writeUint64(h, contentHash)
	writeUint64(h, optionsHash)
	return hex.EncodeToString(h.Sum(nil))
}

func writeUint64(w interface{ Write([]byte) (int, error) }, v uint64) {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	w.Write(b[:])
}

// Get returns the cached content for key, and whether it was present. A
// stale entry (the caller is responsible for keying on the current content
// hash) is simply never looked up again under its old key, so staleness is
// handled entirely by key construction rather than invalidation.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.Content, ok
}

// Put stores content under key, persisting to disk if a directory was
// configured. A write failure is swallowed: caching is an optimization, not
// a correctness requirement, and a failed write must not fail the pipeline.
func (c *Cache) Put(key, content string) {
	c.mu.Lock()
	c.entries[key] = Entry{Key: key, Content: content}
	dir := c.dir
	c.mu.Unlock()

	if dir == "" {
		return
	}
	data, err := json.Marshal(Entry{Key: key, Content: content})
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(dir, key+".json"), data, 0o644)
}

// Len returns the number of entries currently held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
