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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirseerhq/sirseer-sru/internal/sru"
)

// Writer provides thread-safe NDJSON writing.
type Writer struct {
	mu        sync.Mutex
	output    io.Writer
	encoder   *json.Encoder
	count     int
	syncFunc  func() error
	closeFunc func() error
}

// NewWriter creates a new NDJSON writer that writes to the specified output.
// Flush is a no-op for writers created this way.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		output:  w,
		encoder: json.NewEncoder(w),
	}
}

// NewFileWriter opens filename for appending, creating it and its parent
// directory if needed. Records from earlier runs are kept. A partial last
// line left by an interrupted run is removed.
// The caller must call Close() when done to ensure the file is properly closed.
func NewFileWriter(filename string) (*Writer, error) {
	if filename == "" {
		return nil, fmt.Errorf("output path is empty")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	if err := truncateTornLine(file); err != nil {
		file.Close()
		return nil, err
	}

	return &Writer{
		output:    file,
		encoder:   json.NewEncoder(file),
		syncFunc:  file.Sync,
		closeFunc: file.Close,
	}, nil
}

// truncateTornLine cuts a trailing line that has no newline. Such a line is
// a record whose write was interrupted; its page was never committed, so it
// is fetched again by the next run.
func truncateTornLine(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return nil
	}

	r, err := os.Open(file.Name())
	if err != nil {
		return fmt.Errorf("failed to inspect output file: %w", err)
	}
	defer r.Close()

	keep, err := endOfLastLine(r, size)
	if err != nil {
		return fmt.Errorf("failed to inspect output file: %w", err)
	}
	if keep == size {
		return nil
	}
	if err := file.Truncate(keep); err != nil {
		return fmt.Errorf("failed to truncate partial line: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	return nil
}

// endOfLastLine returns the offset just past the last newline in the first
// size bytes of r, or 0 if there is none.
func endOfLastLine(r io.ReaderAt, size int64) (int64, error) {
	const chunk = 4096
	buf := make([]byte, chunk)
	for end := size; end > 0; {
		start := end - chunk
		if start < 0 {
			start = 0
		}
		n, err := r.ReadAt(buf[:end-start], start)
		if err != nil && err != io.EOF {
			return 0, err
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return start + int64(i) + 1, nil
		}
		end = start
	}
	return 0, nil
}

// Write writes a single value as one NDJSON line.
func (w *Writer) Write(record interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.count++
	return nil
}

// Append implements Sink.
func (w *Writer) Append(rec sru.Record) error {
	return w.Write(rec)
}

// Flush fsyncs the underlying file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.syncFunc == nil {
		return nil
	}
	if err := w.syncFunc(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close syncs and closes the underlying writer if it's a file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closeFunc == nil {
		return nil
	}
	var syncErr error
	if w.syncFunc != nil {
		syncErr = w.syncFunc()
	}
	closeFunc := w.closeFunc
	w.closeFunc = nil
	w.syncFunc = nil
	if err := closeFunc(); err != nil {
		return err
	}
	return syncErr
}
