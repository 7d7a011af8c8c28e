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

// Package metadata records statistics about crawl runs: pages and records
// committed, HTTP requests made, retries, and where the cursor started and
// ended. Each run is saved as run-<run id>.json next to the state file, and
// the newest record for a cursor links back to its predecessor.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// runIDLayout sorts lexically in start order.
const runIDLayout = "20060102T150405.000000000Z"

// Tracker collects statistics during a crawl run. Create one at the start of
// each run. Its methods are safe to call from HTTP client hooks.
type Tracker struct {
	mu        sync.Mutex
	startTime time.Time
	pages     int
	records   int
	apiCalls  int
	retries   int
	firstID   string
	lastID    string
}

// New creates a new metadata tracker and initializes it with the current time.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
	}
}

// RunID identifies the run by its start time.
func (t *Tracker) RunID() string {
	return t.startTime.UTC().Format(runIDLayout)
}

// IncrementAPICall records that an HTTP request completed.
func (t *Tracker) IncrementAPICall() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiCalls++
}

// IncrementRetry records that a page fetch is being retried.
func (t *Tracker) IncrementRetry() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retries++
}

// RecordPage records a committed page of count records whose first and last
// identifiers are given.
func (t *Tracker) RecordPage(count int, firstID, lastID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pages++
	t.records += count
	if t.firstID == "" {
		t.firstID = firstID
	}
	if lastID != "" {
		t.lastID = lastID
	}
}

// GenerateMetadata creates the RunMetadata for a finished run.
func (t *Tracker) GenerateMetadata(toolVersion string, params RunParams, outcome RunOutcome, previous *RunRef) *RunMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := time.Now()
	md := &RunMetadata{
		Version:  toolVersion,
		RunID:    t.startTime.UTC().Format(runIDLayout),
		Endpoint: params.Endpoint,
		Query:    params.Query,
		PageSize: params.PageSize,
		Results: RunResults{
			StartPosition:   outcome.StartPosition,
			EndPosition:     outcome.EndPosition,
			FirstIdentifier: t.firstID,
			LastIdentifier:  t.lastID,
			APICallCount:    t.apiCalls,
			RetryCount:      t.retries,
		},
		Outcome:     outcome.State,
		PreviousRun: previous,
		StartedAt:   t.startTime,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(t.startTime).String(),
		Pages:       t.pages,
		Records:     t.records,
	}
	if outcome.Err != nil {
		md.Error = outcome.Err.Error()
	}
	return md
}

// Ref returns a reference to md for linking the next run.
func (md *RunMetadata) Ref() *RunRef {
	return &RunRef{
		RunID:       md.RunID,
		EndPosition: md.Results.EndPosition,
		CompletedAt: md.CompletedAt,
	}
}

// SaveMetadata persists a RunMetadata record to dir/run-<run id>.json. The
// file is written to a temporary name, synced and renamed into place.
func SaveMetadata(md *RunMetadata, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run-%s.json", md.RunID))
	tmpFile := path + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	if err := WriteMetadataToWriter(md, file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to sync metadata file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to save metadata file: %w", err)
	}
	return nil
}

// LoadLatestMetadata returns the newest run record in dir for the given
// endpoint and query. It returns nil without error when there is none.
func LoadLatestMetadata(dir, endpoint, query string) (*RunMetadata, error) {
	files, err := filepath.Glob(filepath.Join(dir, "run-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	for _, path := range files {
		md, err := readMetadata(path)
		if err != nil {
			return nil, err
		}
		if md.Endpoint == endpoint && md.Query == query {
			return md, nil
		}
	}
	return nil, nil
}

func readMetadata(path string) (*RunMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var md RunMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", filepath.Base(path), err)
	}
	return &md, nil
}

// WriteMetadataToWriter serializes metadata as indented JSON.
func WriteMetadataToWriter(md *RunMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(md)
}
