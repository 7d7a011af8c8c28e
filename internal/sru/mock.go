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

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a Client serving an in-memory result set for testing.
type MockClient struct {
	mu sync.Mutex

	// Records is the full result set, indexed by position.
	Records []Record

	// ReportTotal makes pages carry Total like a real SRU endpoint.
	ReportTotal bool

	// ReportNext makes pages carry NextPosition like a real SRU endpoint.
	ReportNext bool

	// MaxPageSize caps the records per page regardless of the request,
	// mimicking a server-side maximumRecords limit. Zero means no cap.
	MaxPageSize int

	// Errors are returned, in order, by the next calls before data is served.
	Errors []error

	// Track calls for verification
	CallCount int
	Requests  []FetchOptions
}

// NewMockClient creates a mock client holding n generated records.
func NewMockClient(n int) *MockClient {
	return &MockClient{Records: GenerateRecords(n)}
}

// FetchPage implements the Client interface
func (m *MockClient) FetchPage(ctx context.Context, opts FetchOptions) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.Requests = append(m.Requests, opts)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(m.Errors) > 0 {
		err := m.Errors[0]
		m.Errors = m.Errors[1:]
		return nil, err
	}

	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if m.MaxPageSize > 0 && size > m.MaxPageSize {
		size = m.MaxPageSize
	}

	page := &Page{Records: []Record{}}
	if opts.Start < len(m.Records) {
		end := opts.Start + size
		if end > len(m.Records) {
			end = len(m.Records)
		}
		page.Records = append(page.Records, m.Records[opts.Start:end]...)
		if m.ReportNext && end < len(m.Records) {
			next := end
			page.NextPosition = &next
		}
	}
	if m.ReportTotal {
		total := len(m.Records)
		page.Total = &total
	}
	return page, nil
}

// Append adds n generated records to the end of the result set, simulating
// new publications between runs.
func (m *MockClient) Append(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := len(m.Records)
	for i := 0; i < n; i++ {
		m.Records = append(m.Records, generateRecord(start+i))
	}
}

// Calls returns the number of FetchPage calls so far.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// GenerateRecords creates n sample records at positions 0..n-1.
func GenerateRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = generateRecord(i)
	}
	return records
}

func generateRecord(pos int) Record {
	return Record{
		Identifier: fmt.Sprintf("kst-%06d", pos+1),
		Content:    fmt.Sprintf("Kamerstuk %d tekst", pos+1),
		Source:     defaultSourceName,
		Title:      fmt.Sprintf("Kamerstuk %d", pos+1),
		Type:       "Kamerstuk",
		Date:       "2024-01-15",
		Position:   pos,
	}
}
