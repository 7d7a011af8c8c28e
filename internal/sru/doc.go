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

// Package sru provides a client for the SRU 2.0 searchRetrieve protocol used
// by the Dutch government publication search service. It hides the request
// encoding and XML response decoding behind a small Client interface that
// returns one page of normalized records at a time.
//
// The package includes:
//   - A Client interface for fetching pages by 0-based record offset
//   - An HTTP implementation built on go-resty
//   - A RetryClient decorator with bounded exponential backoff
//   - A MockClient serving an in-memory record set for tests
//
// Basic usage:
//
//	client := sru.NewHTTPClient(sru.ClientConfig{
//	    Endpoint: "https://zoek.officielebekendmakingen.nl/sru/Search",
//	    Query:    `c.product-area=="officielepublicaties"`,
//	})
//	page, err := client.FetchPage(ctx, sru.FetchOptions{Start: 0, PageSize: 1000})
//	if err != nil {
//	    // Handle error
//	}
//	for _, rec := range page.Records {
//	    // Process record
//	}
package sru
