package imaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"mintada/internal/logging"
)

// CacheEntry is one persisted hash, valid while the file keeps the recorded
// size and modification time.
type CacheEntry struct {
	Path    string    `json:"path"`
	Hash    string    `json:"hash"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// HashCache maps image paths to their hashes. It is safe for concurrent use.
// With an empty path it lives in memory only and Flush is a no-op.
type HashCache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]CacheEntry
	dirty   bool
}

// NewHashCache creates a cache, loading any entries persisted at path.
func NewHashCache(path string, logger *slog.Logger) *HashCache {
	logger = logging.NewComponentLogger(logger, "hashcache")
	c := &HashCache{
		path:    path,
		logger:  logger,
		entries: make(map[string]CacheEntry),
	}
	if path == "" {
		return c
	}
	if err := c.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load hash cache", "hashcache_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the cache file if it is corrupt"),
			logging.String(logging.FieldImpact, "hashes will be recomputed"))
	}
	return c
}

// Lookup returns the cached hash for path when info still matches the entry.
func (c *HashCache) Lookup(path string, info fs.FileInfo) (Hash, bool) {
	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok || info == nil {
		return 0, false
	}
	if entry.Size != info.Size() || !entry.ModTime.Equal(info.ModTime()) {
		return 0, false
	}
	h, err := ParseHash(entry.Hash)
	if err != nil {
		return 0, false
	}
	return h, true
}

// Store records the hash of path as of info.
func (c *HashCache) Store(path string, info fs.FileInfo, h Hash) {
	if info == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = CacheEntry{Path: path, Hash: h.String(), Size: info.Size(), ModTime: info.ModTime()}
	c.dirty = true
}

// Invalidate drops any entry for the listed paths.
func (c *HashCache) Invalidate(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		if _, ok := c.entries[p]; ok {
			delete(c.entries, p)
			c.dirty = true
		}
	}
}

// Reset empties the cache in memory. The next Flush persists the empty state.
func (c *HashCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
	c.dirty = true
}

// Count returns the number of cached hashes.
func (c *HashCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush persists pending changes.
func (c *HashCache) Flush() error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := c.save(); err != nil {
		return fmt.Errorf("persist hash cache: %w", err)
	}
	c.dirty = false
	return nil
}

func (c *HashCache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	for _, entry := range entries {
		if entry.Path != "" {
			c.entries[entry.Path] = entry
		}
	}
	c.logger.Debug("loaded hash cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return nil
}

// save writes the cache atomically. Callers hold c.mu.
func (c *HashCache) save() error {
	entries := make([]CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Hasher hashes image files through a HashCache.
type Hasher struct {
	cache  *HashCache
	logger *slog.Logger
}

// NewHasher returns a Hasher backed by cache. A nil cache disables caching.
func NewHasher(cache *HashCache, logger *slog.Logger) *Hasher {
	if cache == nil {
		cache = NewHashCache("", logger)
	}
	return &Hasher{cache: cache, logger: logging.NewComponentLogger(logger, "hasher")}
}

// Cache exposes the underlying cache.
func (h *Hasher) Cache() *HashCache { return h.cache }

// HashFile returns the difference hash of the image at path.
func (h *Hasher) HashFile(path string) (Hash, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if cached, ok := h.cache.Lookup(path, info); ok {
		return cached, nil
	}
	img, err := Decode(path)
	if err != nil {
		return 0, err
	}
	sum := DHash(img)
	h.cache.Store(path, info, sum)
	h.logger.Debug("hashed image",
		logging.String("path", path),
		logging.String("hash", sum.String()))
	return sum, nil
}
