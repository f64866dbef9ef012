// Package cache implements the finding cache of spec.md §4.G: a JSON
// file keyed by path relative to the scan base, recording enough
// metadata (mtime/size, or a content hash) to skip re-detecting
// unchanged files on the next run.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oktsec/secretsentinel/internal/finding"
)

const CurrentVersion = 2

// Store is the interface internal/scan relies on, so a scan run can be
// backed by either the default JSON *Cache or *SQLiteStore without
// knowing which. Selected per-run by Open based on cfg.Cache.Driver.
type Store interface {
	Get(relPath string) (Entry, bool)
	Put(relPath string, e Entry)
	Prune()
	Save(path string) error
	Close() error
}

// Open returns the Store named by driver ("json", the default, or
// "sqlite"), bound to path.
func Open(path, driver string) (Store, error) {
	if driver == "sqlite" {
		return OpenSQLiteStore(path)
	}
	return Load(path)
}

// Entry records what a file looked like the last time it was scanned.
type Entry struct {
	MtimeMs  int64              `json:"mtime_ms"`
	Size     int64              `json:"size"`
	Findings []finding.Finding  `json:"findings"`
	Hash     string             `json:"hash,omitempty"`
}

// Cache is the on-disk cache payload.
type Cache struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`

	mu      sync.Mutex
	path    string
	visited map[string]bool
}

// Empty returns a fresh v2 cache bound to path, with nothing loaded.
func Empty(path string) *Cache {
	return &Cache{Version: CurrentVersion, Entries: map[string]Entry{}, path: path, visited: map[string]bool{}}
}

// Load reads the cache file at path per spec.md §4.G. A missing,
// empty, or corrupt file yields a fresh empty v2 cache; a corrupt file
// is preserved alongside as "<path>.corrupted.<ts_ms>" before being
// removed. v1 payloads are structurally compatible and are re-labeled
// version 2.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(path), nil
		}
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}
	if len(trimSpace(data)) == 0 {
		return Empty(path), nil
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil || !valid(&c) {
		quarantine(path, data)
		return Empty(path), nil
	}

	c.path = path
	c.visited = map[string]bool{}
	if c.Entries == nil {
		c.Entries = map[string]Entry{}
	}
	c.Version = CurrentVersion
	return &c, nil
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// valid performs the structural check spec.md §4.G requires before
// trusting a parsed cache: numeric version in {1,2} and an entries map
// whose values look like CacheEntry.
func valid(c *Cache) bool {
	if c.Version != 1 && c.Version != 2 {
		return false
	}
	n := 0
	for _, e := range c.Entries {
		if e.Size < 0 || e.MtimeMs < 0 {
			return false
		}
		n++
		if n >= 16 {
			break // sample check; spec only requires "first N sample entries"
		}
	}
	return true
}

func quarantine(path string, data []byte) {
	dest := fmt.Sprintf("%s.corrupted.%d", path, time.Now().UnixMilli())
	_ = os.WriteFile(dest, data, 0o644)
	_ = os.Remove(path)
}

// Get returns the cached entry for relPath, if any, and marks it
// visited so a later Prune keeps it.
func (c *Cache) Get(relPath string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visited[relPath] = true
	e, ok := c.Entries[relPath]
	return e, ok
}

// Hit reports whether entry matches the current file state under
// mtime mode (mtime_ms+size equality) or hash mode (hash equality).
func (e Entry) Hit(mtimeMs, size int64, hash string, hashMode bool) bool {
	if hashMode {
		return hash != "" && e.Hash == hash
	}
	return e.MtimeMs == mtimeMs && e.Size == size
}

// Put records or overwrites relPath's entry; updates are serialized
// since concurrent scan workers only ever touch their own file's key,
// but the map itself is shared.
func (c *Cache) Put(relPath string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Entries[relPath] = e
	c.visited[relPath] = true
}

// Prune drops every entry that was not visited (via Get or Put) since
// Load, per spec.md §4.F step 6. Callers in incremental mode should
// skip calling Prune so unvisited (unchanged) files keep their entries.
func (c *Cache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.Entries {
		if !c.visited[k] {
			delete(c.Entries, k)
		}
	}
}

// Save validates the cache and writes it atomically to path (temp file
// then rename), refusing to write if the structure is invalid or the
// directory is unwritable.
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Version != 1 && c.Version != 2 {
		return fmt.Errorf("refusing to save cache with invalid version %d", c.Version)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache directory unwritable: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("installing cache file: %w", err)
	}
	return nil
}

// Close satisfies Store; the JSON cache has no handle to release.
func (c *Cache) Close() error { return nil }
