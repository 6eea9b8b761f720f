package state

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vhostlog/internal/tally"
)

// Store persists per-destination counters between runs
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS destinations (
		file TEXT PRIMARY KEY,
		domain TEXT,
		month TEXT,
		lines INTEGER,
		bytes INTEGER,
		first_seen DATETIME,
		last_seen DATETIME
	);`
	if _, err = db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveAll adds the line and byte deltas of entries to the stored counters
// and widens the stored first/last seen range. Feed it tally.Drain output,
// not totals.
func (s *Store) SaveAll(entries map[string]tally.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO destinations
		(file, domain, month, lines, bytes, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET
			lines = lines + excluded.lines,
			bytes = bytes + excluded.bytes,
			first_seen = MIN(first_seen, excluded.first_seen),
			last_seen = MAX(last_seen, excluded.last_seen)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		// UTC keeps the stored text forms comparable by MIN/MAX
		_, err = stmt.Exec(e.File, e.Domain, e.Month, e.Lines, e.Bytes, e.FirstSeen.UTC(), e.LastSeen.UTC())
		if err != nil {
			log.Printf("[STATE] Failed to save counters for %s: %v", e.File, err)
		}
	}

	return tx.Commit()
}

func (s *Store) LoadAll() (map[string]tally.Entry, error) {
	rows, err := s.db.Query("SELECT file, domain, month, lines, bytes, first_seen, last_seen FROM destinations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]tally.Entry)
	for rows.Next() {
		var e tally.Entry
		var firstSeen, lastSeen time.Time

		err = rows.Scan(&e.File, &e.Domain, &e.Month, &e.Lines, &e.Bytes, &firstSeen, &lastSeen)
		if err != nil {
			continue
		}

		e.FirstSeen = firstSeen
		e.LastSeen = lastSeen
		entries[e.File] = e
	}

	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
