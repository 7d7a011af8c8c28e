// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	// Pure-Go SQLite driver
	_ "modernc.org/sqlite"

	"github.com/sirseerhq/sirseer-sru/internal/sru"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	identifier TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	source     TEXT NOT NULL,
	title      TEXT,
	type       TEXT,
	date       TEXT,
	creator    TEXT,
	position   INTEGER NOT NULL,
	fetched_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

const upsertRecord = `
INSERT INTO records (identifier, content, source, title, type, date, creator, position)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(identifier) DO UPDATE SET
	content    = excluded.content,
	source     = excluded.source,
	title      = excluded.title,
	type       = excluded.type,
	date       = excluded.date,
	creator    = excluded.creator,
	position   = excluded.position,
	fetched_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// SQLiteSink stores records in a SQLite table keyed on identifier. Records
// appended between two flushes are written in one transaction; a record seen
// again replaces the earlier row. Records without an identifier are keyed on
// their result-set position.
type SQLiteSink struct {
	mu      sync.Mutex
	db      *sql.DB
	pending []sru.Record
}

// NewSQLiteSink opens or creates the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=FULL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Append implements Sink. Records are held until Flush.
func (s *SQLiteSink) Append(rec sru.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, rec)
	return nil
}

// RecordKey returns the primary key a record is stored under: its
// identifier, or "position:<n>" for records that carry none.
func RecordKey(rec sru.Record) string {
	if rec.Identifier != "" {
		return rec.Identifier
	}
	return fmt.Sprintf("position:%d", rec.Position)
}

// Flush upserts the pending records in a single transaction.
func (s *SQLiteSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(upsertRecord)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range s.pending {
		key := RecordKey(rec)
		if _, err := stmt.Exec(key, rec.Content, rec.Source,
			rec.Title, rec.Type, rec.Date, rec.Creator, rec.Position); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.pending = s.pending[:0]
	return nil
}

// Count returns the number of stored records.
func (s *SQLiteSink) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close flushes pending records and closes the database.
func (s *SQLiteSink) Close() error {
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}
