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
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
)

const (
	testEndpoint = "https://zoek.officielebekendmakingen.nl/sru/Search"
	testQuery    = `c.product-area=="officielepublicaties"`
)

func TestStateFilePath(t *testing.T) {
	dir := t.TempDir()

	a := StateFilePath(dir, testEndpoint, testQuery)
	b := StateFilePath(dir, testEndpoint, testQuery)
	c := StateFilePath(dir, testEndpoint, `c.product-area=="sgd"`)

	if a != b {
		t.Errorf("StateFilePath not stable: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different queries share a state file: %q", a)
	}
	if filepath.Dir(a) != dir {
		t.Errorf("state file %q not inside %q", a, dir)
	}
	if !strings.HasSuffix(a, ".state") {
		t.Errorf("state file %q missing .state suffix", a)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	tempDir := t.TempDir()
	runAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	testCursor := &Cursor{
		Endpoint:     testEndpoint,
		Query:        testQuery,
		Position:     12,
		LastRunAt:    &runAt,
		LastFetchID:  "crawl-1705312800",
		TotalFetched: 12,
	}

	stateFile := filepath.Join(tempDir, "nested", "test.state")

	if err := SaveState(testCursor, stateFile); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	if _, err := os.Stat(stateFile); err != nil {
		t.Fatalf("State file not created: %v", err)
	}
	if _, err := os.Stat(stateFile + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	loaded, err := LoadState(stateFile)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if loaded.Position != testCursor.Position {
		t.Errorf("Position mismatch: got %d, want %d", loaded.Position, testCursor.Position)
	}
	if loaded.Query != testCursor.Query {
		t.Errorf("Query mismatch: got %q, want %q", loaded.Query, testCursor.Query)
	}
	if loaded.LastRunAt == nil || !loaded.LastRunAt.Equal(runAt) {
		t.Errorf("LastRunAt mismatch: got %v, want %v", loaded.LastRunAt, runAt)
	}
	if loaded.Version != CurrentVersion {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, CurrentVersion)
	}
	if loaded.Checksum == "" {
		t.Error("Checksum should not be empty")
	}
}

func TestLoadState_FileNotExist(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "nonexistent.state")

	_, err := LoadState(stateFile)
	if !errors.Is(err, ErrNoState) {
		t.Fatalf("LoadState error = %v, want ErrNoState", err)
	}
}

func TestLoadState_CorruptedJSON(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "corrupted.state")

	if err := os.WriteFile(stateFile, []byte("{ invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadState(stateFile)
	if err == nil {
		t.Fatal("LoadState should fail for corrupted JSON")
	}
	if !strings.Contains(err.Error(), "corrupted (invalid JSON)") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestLoadState_ChecksumMismatch(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "tampered.state")

	if err := SaveState(&Cursor{Endpoint: testEndpoint, Query: testQuery, Position: 100}, stateFile); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(stateFile)
	if err != nil {
		t.Fatal(err)
	}

	// A bogus high cursor must never be trusted.
	tampered := strings.Replace(string(data), `"position":100`, `"position":900`, 1)
	if tampered == string(data) {
		t.Fatal("tampering did not change the file")
	}
	if err := os.WriteFile(stateFile, []byte(tampered), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = LoadState(stateFile)
	if err == nil {
		t.Fatal("LoadState should fail for tampered state")
	}
	if !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestLoadState_VersionMismatch(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "oldversion.state")

	old := map[string]interface{}{
		"version":  0,
		"checksum": "",
		"endpoint": testEndpoint,
		"query":    testQuery,
		"position": 100,
	}
	data, _ := json.Marshal(old)
	if err := os.WriteFile(stateFile, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadState(stateFile)
	if err == nil {
		t.Fatal("LoadState should fail for version mismatch")
	}
	if !strings.Contains(err.Error(), "incompatible with current version") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestSaveState_NegativePosition(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "negative.state")

	err := SaveState(&Cursor{Position: -1}, stateFile)
	if !errors.Is(err, sruerrors.ErrStateWrite) {
		t.Fatalf("SaveState error = %v, want ErrStateWrite", err)
	}
	if _, statErr := os.Stat(stateFile); !os.IsNotExist(statErr) {
		t.Error("state file should not exist after rejected save")
	}
}

func TestSaveState_ReadOnlyDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission checks not enforced")
	}

	dir := t.TempDir()
	stateFile := filepath.Join(dir, "ro.state")
	if err := SaveState(&Cursor{Position: 5}, stateFile); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := SaveState(&Cursor{Position: 10}, stateFile)
	if !errors.Is(err, sruerrors.ErrStateWrite) {
		t.Fatalf("SaveState error = %v, want ErrStateWrite", err)
	}

	loaded, err := LoadState(stateFile)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if loaded.Position != 5 {
		t.Errorf("Position = %d, want previously committed 5", loaded.Position)
	}
}

func TestAtomicWrite(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "atomic.state")

	if err := SaveState(&Cursor{Position: 100}, stateFile); err != nil {
		t.Fatal(err)
	}

	initialData, err := os.ReadFile(stateFile)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a crash that left a partial temp file behind
	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, []byte("partial write"), 0o644); err != nil {
		t.Fatal(err)
	}

	currentData, err := os.ReadFile(stateFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(currentData) != string(initialData) {
		t.Error("Original state file was modified during partial write")
	}

	// The next save overwrites the stale temp file
	if err := SaveState(&Cursor{Position: 105}, stateFile); err != nil {
		t.Fatalf("SaveState over stale temp file failed: %v", err)
	}
	loaded, err := LoadState(stateFile)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Position != 105 {
		t.Errorf("Position = %d, want 105", loaded.Position)
	}
}

func TestDeleteState(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "delete.state")

	if err := SaveState(&Cursor{Position: 100}, stateFile); err != nil {
		t.Fatal(err)
	}

	if err := DeleteState(stateFile); err != nil {
		t.Fatalf("DeleteState failed: %v", err)
	}

	if _, err := os.Stat(stateFile); !os.IsNotExist(err) {
		t.Error("State file still exists after deletion")
	}

	if err := DeleteState(stateFile); err != nil {
		t.Errorf("DeleteState on non-existent file should not error: %v", err)
	}
}

func TestCursor_Advance(t *testing.T) {
	c := NewCursor(testEndpoint, testQuery)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	c.Advance(5, 5, at)
	if c.Position != 5 || c.TotalFetched != 5 {
		t.Fatalf("after first advance got position=%d total=%d", c.Position, c.TotalFetched)
	}
	if c.LastRunAt == nil || c.LastRunAt.Location() != time.UTC {
		t.Errorf("LastRunAt should be stored in UTC, got %v", c.LastRunAt)
	}

	c.Advance(3, 0, at)
	if c.Position != 5 {
		t.Errorf("Position moved backwards to %d", c.Position)
	}
}

func TestFileStore_Load(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name         string
		setup        func(t *testing.T, path string)
		wantPosition int
	}{
		{
			name:         "missing file starts at zero",
			setup:        func(t *testing.T, path string) {},
			wantPosition: 0,
		},
		{
			name: "corrupt file starts at zero",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte(`{"position": 4`), 0o600); err != nil {
					t.Fatal(err)
				}
			},
			wantPosition: 0,
		},
		{
			name: "empty file starts at zero",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, nil, 0o600); err != nil {
					t.Fatal(err)
				}
			},
			wantPosition: 0,
		},
		{
			name: "foreign query starts at zero",
			setup: func(t *testing.T, path string) {
				if err := SaveState(&Cursor{Endpoint: testEndpoint, Query: "other", Position: 40}, path); err != nil {
					t.Fatal(err)
				}
			},
			wantPosition: 0,
		},
		{
			name: "valid file resumes",
			setup: func(t *testing.T, path string) {
				if err := SaveState(&Cursor{Endpoint: testEndpoint, Query: testQuery, Position: 40}, path); err != nil {
					t.Fatal(err)
				}
			},
			wantPosition: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "crawl.state")
			tt.setup(t, path)

			store := NewFileStore(path, testEndpoint, testQuery, logger)
			cursor := store.Load(ctx)
			if cursor == nil {
				t.Fatal("Load returned nil cursor")
			}
			if cursor.Position != tt.wantPosition {
				t.Errorf("Position = %d, want %d", cursor.Position, tt.wantPosition)
			}
			if !cursor.Matches(testEndpoint, testQuery) {
				t.Errorf("cursor not bound to configured result set: %+v", cursor)
			}
		})
	}
}

func TestFileStore_SaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crawl.state")
	store := NewFileStore(path, testEndpoint, testQuery, zerolog.Nop())

	cursor := store.Load(ctx)
	cursor.Advance(12, 12, time.Now())
	if err := store.Save(ctx, cursor); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := NewFileStore(path, testEndpoint, testQuery, zerolog.Nop()).Load(ctx)
	if reloaded.Position != 12 || reloaded.TotalFetched != 12 {
		t.Errorf("reloaded cursor = %+v, want position 12 total 12", reloaded)
	}
}
