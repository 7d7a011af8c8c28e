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
	"fmt"

	"github.com/sirseerhq/sirseer-sru/internal/sru"
)

// Sink defines the interface for persisting crawled records.
// Implementations are not safe for use by multiple crawlers at once.
type Sink interface {
	// Append stages a single record. It may buffer.
	Append(rec sru.Record) error

	// Flush makes every record appended so far durable.
	Flush() error

	// Close flushes and releases any resources.
	Close() error
}

// Sink kinds accepted by Open.
const (
	KindNDJSON = "ndjson"
	KindShards = "shards"
	KindSQLite = "sqlite"
)

// Options selects and configures a sink.
type Options struct {
	// Kind is one of KindNDJSON, KindShards or KindSQLite.
	Kind string

	// Path is the NDJSON file or SQLite database path.
	Path string

	// Dir is the shard directory.
	Dir string

	// ShardSize is the number of records per shard.
	ShardSize int

	// Compression is applied to shards: none, gzip or zstd.
	Compression string
}

// Open creates the sink described by opts.
func Open(opts Options) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch opts.Kind {
	case KindNDJSON, "":
		sink, err = NewFileWriter(opts.Path)
	case KindShards:
		sink, err = NewShardWriter(opts.Dir, opts.ShardSize, Compression(opts.Compression))
	case KindSQLite:
		sink, err = NewSQLiteSink(opts.Path)
	default:
		return nil, fmt.Errorf("unknown output kind %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return sink, nil
}
