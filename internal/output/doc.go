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

// Package output persists crawled records. Every sink implements Sink: the
// crawler appends a page of records and then calls Flush, and a nil return
// from Flush means the page is durably stored and the cursor may advance.
//
// Three sinks are provided:
//
//   - Writer appends NDJSON lines to a single file opened in append mode, so
//     successive runs extend the same log.
//   - ShardWriter writes JSONL shards of a fixed record count, named after
//     the result-set offsets they cover, optionally zstd or gzip compressed.
//   - SQLiteSink upserts records into a SQLite table keyed on identifier,
//     which makes reprocessing a page after a crash idempotent.
//
// Example usage:
//
//	sink, err := output.Open(output.Options{Kind: output.KindNDJSON, Path: "records.ndjson"})
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	for _, rec := range page.Records {
//	    if err := sink.Append(rec); err != nil {
//	        return err
//	    }
//	}
//	if err := sink.Flush(); err != nil {
//	    return err
//	}
package output
