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

package state

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Store loads and saves the crawl cursor.
type Store interface {
	// Load returns the last committed cursor. It never fails: a missing or
	// unusable state file yields a zero cursor so a fresh crawl can start.
	Load(ctx context.Context) *Cursor

	// Save persists the cursor atomically. An error means the cursor on disk
	// is still the previously committed one.
	Save(ctx context.Context, cursor *Cursor) error
}

// FileStore is a Store backed by a single JSON state file.
type FileStore struct {
	path     string
	endpoint string
	query    string
	logger   zerolog.Logger
}

// NewFileStore creates a FileStore for the result set identified by
// endpoint and query.
func NewFileStore(path, endpoint, query string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:     path,
		endpoint: endpoint,
		query:    query,
		logger:   logger.With().Str("component", "state").Str("path", path).Logger(),
	}
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) *Cursor {
	cursor, err := LoadState(s.path)
	if err != nil {
		if errors.Is(err, ErrNoState) {
			s.logger.Info().Msg("no previous state, starting at position 0")
		} else {
			s.logger.Warn().Err(err).Msg("state file unusable, starting at position 0")
		}
		return NewCursor(s.endpoint, s.query)
	}

	if !cursor.Matches(s.endpoint, s.query) {
		s.logger.Warn().
			Str("state_endpoint", cursor.Endpoint).
			Str("state_query", cursor.Query).
			Msg("state belongs to a different result set, starting at position 0")
		return NewCursor(s.endpoint, s.query)
	}

	s.logger.Info().Int("position", cursor.Position).Msg("resuming from saved state")
	return cursor
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, cursor *Cursor) error {
	if err := SaveState(cursor, s.path); err != nil {
		return err
	}
	s.logger.Debug().Int("position", cursor.Position).Msg("state committed")
	return nil
}
