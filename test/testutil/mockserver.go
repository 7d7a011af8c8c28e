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

// Package testutil provides common test helpers for sirseer-sru
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

// MockServer is an SRU endpoint serving a synthetic result set
type MockServer struct {
	*httptest.Server

	requestCount int32

	mu       sync.Mutex
	total    int
	failures []int
	queries  []string
	maxPage  int
}

// MockServerOption configures a MockServer
type MockServerOption func(*MockServer)

// WithFailures makes the first len(statuses) requests answer with the given
// HTTP statuses. Status 0 answers 200 with a body that is not XML.
func WithFailures(statuses ...int) MockServerOption {
	return func(m *MockServer) {
		m.failures = append(m.failures, statuses...)
	}
}

// WithMaxPageSize caps maximumRecords on the server side
func WithMaxPageSize(n int) MockServerOption {
	return func(m *MockServer) {
		m.maxPage = n
	}
}

// NewSRUServer creates a mock SRU endpoint with total records
func NewSRUServer(t *testing.T, total int, opts ...MockServerOption) *MockServer {
	t.Helper()
	m := &MockServer{total: total}
	for _, opt := range opts {
		opt(m)
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Close)
	return m
}

// NewMockServer creates a basic mock server with a custom handler
func NewMockServer(t *testing.T, handler http.HandlerFunc) *MockServer {
	t.Helper()
	m := &MockServer{}
	m.Server = httptest.NewServer(handler)
	t.Cleanup(m.Close)
	return m
}

// NewErrorServer creates a mock server that always returns the specified status
func NewErrorServer(t *testing.T, statusCode int) *MockServer {
	t.Helper()
	var m *MockServer
	m = NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.requestCount, 1)
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	})
	return m
}

// RequestCount returns the number of requests served so far
func (m *MockServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// Queries returns the raw query strings of all requests served so far
func (m *MockServer) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// SetTotal changes the size of the served result set, simulating new
// publications between runs
func (m *MockServer) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

func (m *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	m.queries = append(m.queries, r.URL.RawQuery)
	var failure *int
	if len(m.failures) > 0 {
		f := m.failures[0]
		m.failures = m.failures[1:]
		failure = &f
	}
	total := m.total
	maxPage := m.maxPage
	m.mu.Unlock()

	if failure != nil {
		if *failure == 0 {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>maintenance</body>"))
			return
		}
		w.WriteHeader(*failure)
		_, _ = w.Write([]byte(http.StatusText(*failure)))
		return
	}

	q := r.URL.Query()
	start, err := strconv.Atoi(q.Get("startRecord"))
	if err != nil || start < 1 {
		start = 1
	}
	size, err := strconv.Atoi(q.Get("maximumRecords"))
	if err != nil || size < 0 {
		size = 10
	}
	if maxPage > 0 && size > maxPage {
		size = maxPage
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(GenerateSRUResponse(start, size, total)))
}
