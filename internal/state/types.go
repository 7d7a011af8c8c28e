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
	"time"
)

// CurrentVersion is the current state schema version.
// Increment this when making breaking changes to the Cursor structure.
const CurrentVersion = 1

// Cursor represents the persistent position of a crawl.
// It is the sole durable state of the crawler and is designed to be
// forward-compatible through versioning and tamper-evident through checksums.
type Cursor struct {
	// Version indicates the schema version of this state file.
	Version int `json:"version"`

	// Checksum is the SHA256 hash of the state content (excluding this field).
	Checksum string `json:"checksum"`

	// Endpoint and Query identify the result set this cursor walks.
	// A cursor is only valid for the result set it was created for.
	Endpoint string `json:"endpoint"`
	Query    string `json:"query"`

	// Position is the 0-based offset of the next record to fetch. Every
	// record below Position has been durably appended to the output.
	Position int `json:"position"`

	// LastRunAt records when the last page was committed.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastFetchID identifies the run that committed this cursor.
	LastFetchID string `json:"last_fetch_id,omitempty"`

	// TotalFetched counts records committed across all runs.
	TotalFetched int `json:"total_fetched"`
}

// NewCursor returns a zero cursor bound to the given result set.
func NewCursor(endpoint, query string) *Cursor {
	return &Cursor{
		Version:  CurrentVersion,
		Endpoint: endpoint,
		Query:    query,
	}
}

// Advance moves the cursor forward to next after a page of count records
// was committed. Positions never move backwards; a smaller next is ignored.
func (c *Cursor) Advance(next, count int, at time.Time) {
	if next > c.Position {
		c.Position = next
	}
	c.TotalFetched += count
	t := at.UTC()
	c.LastRunAt = &t
}

// Matches reports whether the cursor was created for the given result set.
func (c *Cursor) Matches(endpoint, query string) bool {
	return c.Endpoint == endpoint && c.Query == query
}
