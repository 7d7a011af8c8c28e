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

// Package state provides atomic cursor persistence for resumable crawls.
//
// A Cursor records how far into an SRU result set the crawler has durably
// written output. It is saved after every committed page with a
// write-to-temp, fsync and rename sequence so a crash mid-write leaves either
// the previous cursor or the new one on disk, never a torn file. Every file
// carries a schema version and a SHA256 checksum; a file that fails either
// check is treated as absent and the crawl restarts from position 0, which
// may duplicate output but never skips records.
//
// A single process owns a state file for the duration of a run. Running two
// crawls against the same state file concurrently is unsafe.
//
// Example usage:
//
//	store := state.NewFileStore(state.StateFilePath(dir, endpoint, query), endpoint, query, logger)
//	cursor := store.Load(ctx)
//	cursor.Advance(cursor.Position+len(records), time.Now())
//	err := store.Save(ctx, cursor)
package state
