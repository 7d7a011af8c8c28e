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
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
)

// ErrNoState is returned by LoadState when no state file exists yet.
var ErrNoState = errors.New("no previous crawl state found")

// StateFilePath returns the state file path for an endpoint/query pair inside
// dir. Different queries against the same endpoint get different files.
// Returns: <dir>/<first 16 hex chars of sha1(endpoint + "\n" + query)>.state
func StateFilePath(dir, endpoint, query string) string {
	sum := sha1.Sum([]byte(endpoint + "\n" + query))
	return filepath.Join(dir, hex.EncodeToString(sum[:])[:16]+".state")
}

// SaveState atomically saves the cursor to disk with integrity validation.
// It uses a write-to-temp, fsync and rename pattern to ensure atomicity.
// The checksum is calculated and stored to detect corruption.
func SaveState(cursor *Cursor, stateFile string) error {
	if cursor.Position < 0 {
		return fmt.Errorf("refusing to save negative position %d: %w", cursor.Position, sruerrors.ErrStateWrite)
	}

	cursor.Version = CurrentVersion

	// Calculate checksum before adding it to the struct
	checksum, err := calculateChecksum(cursor)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", errors.Join(err, sruerrors.ErrStateWrite))
	}
	cursor.Checksum = checksum

	stateDir := filepath.Dir(stateFile)
	if mkdirErr := os.MkdirAll(stateDir, 0o755); mkdirErr != nil {
		return fmt.Errorf("failed to create state directory: %w", errors.Join(mkdirErr, sruerrors.ErrStateWrite))
	}

	tempFile := stateFile + ".tmp"

	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", errors.Join(err, sruerrors.ErrStateWrite))
	}

	if err := writeSynced(tempFile, data); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary state file: %w", errors.Join(err, sruerrors.ErrStateWrite))
	}

	// Atomic rename
	if err := os.Rename(tempFile, stateFile); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", errors.Join(err, sruerrors.ErrStateWrite))
	}

	// Persist the rename itself
	if err := syncDir(stateDir); err != nil {
		return fmt.Errorf("failed to sync state directory: %w", errors.Join(err, sruerrors.ErrStateWrite))
	}

	return nil
}

// LoadState reads and validates the cursor from disk.
// It verifies the checksum and version compatibility.
func LoadState(stateFile string) (*Cursor, error) {
	data, err := os.ReadFile(stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNoState, stateFile)
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", stateFile, err)
	}

	var cursor Cursor
	if unmarshalErr := json.Unmarshal(data, &cursor); unmarshalErr != nil {
		return nil, fmt.Errorf("state file is corrupted (invalid JSON): %w", unmarshalErr)
	}

	if cursor.Version != CurrentVersion {
		return nil, fmt.Errorf("state file version (%d) is incompatible with current version (%d)",
			cursor.Version, CurrentVersion)
	}

	savedChecksum := cursor.Checksum
	calculatedChecksum, err := calculateChecksum(&cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum for validation: %w", err)
	}
	if savedChecksum != calculatedChecksum {
		return nil, fmt.Errorf("state file is corrupted (checksum mismatch)")
	}

	if cursor.Position < 0 {
		return nil, fmt.Errorf("state file is corrupted (negative position %d)", cursor.Position)
	}

	return &cursor, nil
}

// DeleteState removes a state file.
// This is useful for resetting a crawl to the beginning.
func DeleteState(stateFile string) error {
	err := os.Remove(stateFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// calculateChecksum computes the SHA256 hash of the cursor content.
// The checksum field itself is excluded from the calculation.
func calculateChecksum(cursor *Cursor) (string, error) {
	cursorCopy := *cursor
	cursorCopy.Checksum = ""

	data, err := json.Marshal(cursorCopy)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// writeSynced writes data to path with restricted permissions and flushes it
// to stable storage before returning.
func writeSynced(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Some filesystems do not support fsync on directories.
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}
	return nil
}
