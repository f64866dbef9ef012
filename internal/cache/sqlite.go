package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is an alternate cache backend for trees large enough
// that rewriting a single JSON file on every save becomes expensive.
// It implements the same mtime/hash hit semantics as the JSON Cache
// but persists entries as rows instead of one document.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	err error
}

// OpenSQLiteStore opens (creating if needed) a cache database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS cache_entries (
		rel_path TEXT PRIMARY KEY,
		mtime_ms INTEGER NOT NULL,
		size INTEGER NOT NULL,
		hash TEXT,
		findings_json TEXT NOT NULL,
		visited INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Get returns the entry for relPath and marks it visited.
func (s *SQLiteStore) Get(relPath string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e Entry
	var findingsJSON string
	row := s.db.QueryRow(`SELECT mtime_ms, size, hash, findings_json FROM cache_entries WHERE rel_path = ?`, relPath)
	if err := row.Scan(&e.MtimeMs, &e.Size, &e.Hash, &findingsJSON); err != nil {
		return Entry{}, false
	}
	_ = json.Unmarshal([]byte(findingsJSON), &e.Findings)
	_, _ = s.db.Exec(`UPDATE cache_entries SET visited = 1 WHERE rel_path = ?`, relPath)
	return e, true
}

// Put inserts or replaces relPath's entry and marks it visited. Each
// row is written immediately, unlike the JSON Cache which batches
// everything into one Save; a failure here is sticky and surfaces
// from the next Save call, matching Cache.Save's error-return shape.
func (s *SQLiteStore) Put(relPath string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(e.Findings)
	if err != nil {
		s.err = fmt.Errorf("marshaling findings for %s: %w", relPath, err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO cache_entries (rel_path, mtime_ms, size, hash, findings_json, visited)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(rel_path) DO UPDATE SET mtime_ms=excluded.mtime_ms, size=excluded.size,
		   hash=excluded.hash, findings_json=excluded.findings_json, visited=1`,
		relPath, e.MtimeMs, e.Size, e.Hash, string(data),
	)
	if err != nil {
		s.err = fmt.Errorf("writing cache entry for %s: %w", relPath, err)
	}
}

// Prune deletes every row not visited since the store was opened.
func (s *SQLiteStore) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM cache_entries WHERE visited = 0`); err != nil {
		s.err = fmt.Errorf("pruning cache: %w", err)
	}
}

// Save reports the first error recorded by Put or Prune since the
// store was opened; rows are already persisted as each call happens,
// so there is nothing left to write. path is accepted only to satisfy
// Store's signature and is ignored.
func (s *SQLiteStore) Save(_ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Len reports how many entries the store currently holds, for tests
// and diagnostics.
func (s *SQLiteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	_ = s.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&n)
	return n
}
