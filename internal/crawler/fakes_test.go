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

package crawler

import (
	"context"
	"errors"
	"sync"

	"github.com/sirseerhq/sirseer-sru/internal/sru"
	"github.com/sirseerhq/sirseer-sru/internal/state"
)

// memoryStore is an in-memory state.Store that can be told to fail.
type memoryStore struct {
	mu       sync.Mutex
	cursor   *state.Cursor
	saves    int
	failOn   int // fail the nth Save (1-based); 0 never fails
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) Load(ctx context.Context) *state.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == nil {
		return state.NewCursor("", "")
	}
	c := *s.cursor
	return &c
}

func (s *memoryStore) Save(ctx context.Context, cursor *state.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failOn > 0 && s.saves == s.failOn {
		if s.failWith != nil {
			return s.failWith
		}
		return errors.New("disk full")
	}
	c := *cursor
	s.cursor = &c
	return nil
}

func (s *memoryStore) position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == nil {
		return 0
	}
	return s.cursor.Position
}

// memorySink records appended and flushed records.
type memorySink struct {
	mu          sync.Mutex
	pending     []sru.Record
	records     []sru.Record
	flushes     int
	failAppend  int // fail the nth Append (1-based)
	failFlush   bool
	appendCalls int
}

func (s *memorySink) Append(rec sru.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendCalls++
	if s.failAppend > 0 && s.appendCalls == s.failAppend {
		return errors.New("no space left on device")
	}
	s.pending = append(s.pending, rec)
	return nil
}

func (s *memorySink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFlush {
		return errors.New("fsync failed")
	}
	s.records = append(s.records, s.pending...)
	s.pending = nil
	s.flushes++
	return nil
}

func (s *memorySink) Close() error {
	return s.Flush()
}

func (s *memorySink) positions() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.records))
	for i, r := range s.records {
		out[i] = r.Position
	}
	return out
}

// cancelAfterClient cancels the run context once n pages were served.
type cancelAfterClient struct {
	sru.Client
	n      int
	calls  int
	cancel context.CancelFunc
}

func (c *cancelAfterClient) FetchPage(ctx context.Context, opts sru.FetchOptions) (*sru.Page, error) {
	page, err := c.Client.FetchPage(ctx, opts)
	c.calls++
	if c.calls >= c.n {
		c.cancel()
	}
	return page, err
}

// scriptedClient serves fixed pages in order.
type scriptedClient struct {
	pages    []*sru.Page
	requests []sru.FetchOptions
}

func (c *scriptedClient) FetchPage(ctx context.Context, opts sru.FetchOptions) (*sru.Page, error) {
	c.requests = append(c.requests, opts)
	if len(c.pages) == 0 {
		return &sru.Page{Records: []sru.Record{}}, nil
	}
	p := c.pages[0]
	c.pages = c.pages[1:]
	return p, nil
}
