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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/sirseerhq/sirseer-sru/internal/sru"
)

// DefaultShardSize is the number of records per shard when none is configured.
const DefaultShardSize = 300

// Compression selects the codec applied to shard files.
type Compression string

// Supported shard codecs.
const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// Extension returns the file suffix appended after ".jsonl".
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// Valid reports whether c names a supported codec. The empty value means none.
func (c Compression) Valid() bool {
	switch c {
	case "", CompressionNone, CompressionGzip, CompressionZstd:
		return true
	default:
		return false
	}
}

// ShardWriter buffers records and writes them as JSONL shards named
// shard_<first>_<end>.jsonl, where first is the result-set offset of the
// first record and end is first plus the record count. A shard is written
// when it reaches the configured size or on Flush, so shards never span two
// flushes. Writing the same records again produces the same file names.
type ShardWriter struct {
	mu          sync.Mutex
	dir         string
	size        int
	compression Compression
	batch       []sru.Record
	written     []string
}

// NewShardWriter creates the shard directory if needed.
func NewShardWriter(dir string, size int, compression Compression) (*ShardWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("shard directory is empty")
	}
	if size <= 0 {
		size = DefaultShardSize
	}
	if compression == "" {
		compression = CompressionNone
	}
	if !compression.Valid() {
		return nil, fmt.Errorf("unknown shard compression %q", compression)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create shard directory: %w", err)
	}

	return &ShardWriter{
		dir:         dir,
		size:        size,
		compression: compression,
		batch:       make([]sru.Record, 0, size),
	}, nil
}

// Append implements Sink. A full shard is written immediately.
func (s *ShardWriter) Append(rec sru.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch = append(s.batch, rec)
	if len(s.batch) >= s.size {
		return s.seal()
	}
	return nil
}

// Flush writes the partial shard, if any.
func (s *ShardWriter) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.batch) == 0 {
		return nil
	}
	return s.seal()
}

// Close implements Sink.
func (s *ShardWriter) Close() error {
	return s.Flush()
}

// Shards returns the paths of every shard written so far, in write order.
func (s *ShardWriter) Shards() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// ShardName returns the file name for a shard of count records starting at
// offset first.
func ShardName(first, count int, compression Compression) string {
	return fmt.Sprintf("shard_%06d_%06d.jsonl%s", first, first+count, compression.Extension())
}

func (s *ShardWriter) seal() error {
	first := s.batch[0].Position
	path := filepath.Join(s.dir, ShardName(first, len(s.batch), s.compression))
	tmp := path + ".tmp"

	if err := s.writeShard(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename shard: %w", err)
	}
	if err := syncDir(s.dir); err != nil {
		return err
	}

	s.written = append(s.written, path)
	s.batch = s.batch[:0]
	return nil
}

func (s *ShardWriter) writeShard(path string) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create shard: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close shard: %w", cerr)
		}
	}()

	buf := bufio.NewWriter(file)
	w, err := compressWriter(buf, s.compression)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, rec := range s.batch {
		if err := enc.Encode(rec); err != nil {
			w.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish shard: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write shard: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync shard: %w", err)
	}
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return enc, nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// ReadShard decodes every record of a shard, picking the codec from the
// file extension.
func ReadShard(path string) ([]sru.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	switch {
	case strings.HasSuffix(path, CompressionGzip.Extension()):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip shard: %w", err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, CompressionZstd.Extension()):
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd shard: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var records []sru.Record
	dec := json.NewDecoder(r)
	for {
		var rec sru.Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("failed to decode shard %s: %w", filepath.Base(path), err)
		}
		records = append(records, rec)
	}
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory for sync: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}
