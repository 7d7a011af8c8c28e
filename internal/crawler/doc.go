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

// Package crawler implements the resumable pagination loop. A Fetcher loads
// the cursor, requests one page at a time from an sru.Client, appends every
// record of the page to an output.Sink, and only after the sink has flushed
// saves the advanced cursor. A crash at any point therefore repeats at most
// the page in flight and never skips one.
//
// A run moves through these states:
//
//	START -> (FETCHING <-> COMMITTING)* -> EXHAUSTED | STOPPED | STOPPED_ON_ERROR
//
// EXHAUSTED means the result set has no records past the cursor. STOPPED
// means the context was canceled or hit its deadline; it is not an error.
// STOPPED_ON_ERROR means a fetch, sink or state write failed and the last
// committed cursor is left as it was.
package crawler
