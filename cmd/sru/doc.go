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

// Package main implements the sirseer-sru command-line interface.
// This tool walks an SRU searchRetrieve result set page by page and
// appends every record to a durable sink, committing a cursor after each
// page so an interrupted crawl resumes where it left off.
//
// The CLI supports:
//   - Crawling from the committed cursor until the result set is exhausted
//   - NDJSON, compressed JSONL shard and SQLite outputs
//   - Inspecting the cursor and the last run's metadata
//   - Resetting the cursor to the start of the result set
//
// Usage:
//
//	sirseer-sru crawl [flags]
//	sirseer-sru status [flags]
//	sirseer-sru reset [flags]
//
// Example:
//
//	sirseer-sru crawl --query 'c.product-area=="officielepublicaties"' --output-path records.ndjson
//
// Exit codes:
//   - 0: Result set exhausted, or graceful stop (signal or max run duration)
//   - 1: General error
//   - 2: Query rejected by the endpoint, or invalid configuration
//   - 3: Network failure after retries, or malformed responses
//   - 4: State or output write failure
package main
