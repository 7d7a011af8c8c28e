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

package sru

import "context"

// Client defines the remote query interface of the crawler.
// This interface allows for easy mocking in tests.
type Client interface {
	// FetchPage retrieves the records starting at opts.Start. An empty page
	// means the result set has no records at or beyond that offset.
	FetchPage(ctx context.Context, opts FetchOptions) (*Page, error)
}
