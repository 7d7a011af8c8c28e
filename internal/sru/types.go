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

// Record is one normalized publication entry. It is the unit written to the
// output sink; the URL, Content and Source columns mirror the published
// dataset layout.
type Record struct {
	Identifier string `json:"URL"`
	Content    string `json:"Content"`
	Source     string `json:"Source"`
	Title      string `json:"Title,omitempty"`
	Type       string `json:"Type,omitempty"`
	Date       string `json:"Date,omitempty"`
	Creator    string `json:"Creator,omitempty"`

	// Position is the 0-based offset of the record in the result set.
	Position int `json:"Position"`
}

// Page is one batch of records returned by a single searchRetrieve request.
type Page struct {
	// Records in the order the endpoint returned them.
	Records []Record

	// NextPosition is the 0-based offset of the next page when the endpoint
	// announced one. Nil when the endpoint did not.
	NextPosition *int

	// Total is the numberOfRecords reported by the endpoint, if any.
	Total *int
}

// FetchOptions configures which slice of the result set is requested.
type FetchOptions struct {
	// Start is the 0-based offset of the first record to return.
	Start int

	// PageSize is the maximum number of records to return.
	// Defaults to 1000 if not specified.
	PageSize int
}

// Default values for fetch operations
const (
	defaultPageSize     = 1000
	defaultRecordSchema = "gzd"
	defaultSourceName   = "Officiële Publicaties"
	sruVersion          = "2.0"
)
