// Package cachestore provides an expiring key/value cache backed by SQLite.
// It holds the admin catalog payloads (parks, regions, departements) so a
// restart does not re-run the heavy country-wide Overpass queries.
package cachestore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is an expiring byte cache. Entries never expire on disk; freshness
// is decided at read time so stale payloads stay available as a fallback
// when the upstream is unavailable.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for stamping and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates or opens a cache database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			written_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put stores payload under key, stamping it with the current time. An
// existing entry is overwritten.
func (s *Store) Put(key string, payload []byte) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO entries (key, written_at, payload) VALUES (?, ?, ?)",
		key, s.now().UnixNano(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}
	return nil
}

// Get returns the payload for key if it is younger than ttl. An entry
// written at T is valid strictly before T+ttl and expired from T+ttl on.
// Missing and expired entries both report ok=false.
func (s *Store) Get(key string, ttl time.Duration) ([]byte, bool, error) {
	payload, writtenAt, ok, err := s.lookup(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if s.now().Sub(writtenAt) >= ttl {
		return nil, false, nil
	}
	return payload, true, nil
}

// GetStale returns the payload for key regardless of age. Used as a
// fallback when the upstream refresh fails.
func (s *Store) GetStale(key string) ([]byte, bool, error) {
	payload, _, ok, err := s.lookup(key)
	return payload, ok, err
}

func (s *Store) lookup(key string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var writtenAt int64
	err := s.db.QueryRow(
		"SELECT payload, written_at FROM entries WHERE key = ?", key,
	).Scan(&payload, &writtenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}
	return payload, time.Unix(0, writtenAt), true, nil
}

// Delete removes an entry. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
