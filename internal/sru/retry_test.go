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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
	"github.com/sirseerhq/sirseer-sru/internal/fetcherror"
	"github.com/sirseerhq/sirseer-sru/test/testutil"
)

func fastRetryConfig(retries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        retries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryClientRetries(t *testing.T) {
	transient := &fetcherror.StatusError{StatusCode: http.StatusServiceUnavailable, URL: "http://sru"}
	malformed := fmt.Errorf("decode: %w", sruerrors.ErrMalformedPage)
	network := fmt.Errorf("dial: %w", sruerrors.ErrNetworkFailure)

	tests := []struct {
		name          string
		errors        []error
		maxRetries    int
		expectError   error
		wantAnyError  bool
		expectedCalls int
	}{
		{
			name:          "succeeds first time",
			maxRetries:    3,
			expectedCalls: 1,
		},
		{
			name:          "succeeds after one 503",
			errors:        []error{transient},
			maxRetries:    3,
			expectedCalls: 2,
		},
		{
			name:          "succeeds on the last allowed attempt",
			errors:        []error{network, malformed, transient},
			maxRetries:    3,
			expectedCalls: 4,
		},
		{
			name:          "fails after max retries exceeded",
			errors:        []error{transient, transient, transient, transient},
			maxRetries:    3,
			expectError:   sruerrors.ErrRetriesExhausted,
			expectedCalls: 4,
		},
		{
			name:          "query rejection is not retried",
			errors:        []error{fmt.Errorf("bad cql: %w", sruerrors.ErrQueryRejected)},
			maxRetries:    3,
			expectError:   sruerrors.ErrQueryRejected,
			expectedCalls: 1,
		},
		{
			name:          "client error status is not retried",
			errors:        []error{&fetcherror.StatusError{StatusCode: http.StatusBadRequest, URL: "http://sru"}},
			maxRetries:    3,
			wantAnyError:  true,
			expectedCalls: 1,
		},
		{
			name:          "zero retries means one attempt",
			errors:        []error{transient},
			maxRetries:    0,
			expectError:   sruerrors.ErrRetriesExhausted,
			expectedCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockClient(10)
			mock.Errors = append([]error(nil), tt.errors...)
			client := NewRetryClient(mock, fastRetryConfig(tt.maxRetries), zerolog.Nop())

			page, err := client.FetchPage(context.Background(), FetchOptions{PageSize: 5})
			if mock.Calls() != tt.expectedCalls {
				t.Errorf("Expected %d calls, got %d", tt.expectedCalls, mock.Calls())
			}

			if tt.wantAnyError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if errors.Is(err, sruerrors.ErrRetriesExhausted) {
					t.Errorf("Permanent error reported as exhausted retries: %v", err)
				}
				return
			}
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("Expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(page.Records) != 5 {
				t.Errorf("Expected 5 records, got %d", len(page.Records))
			}
		})
	}
}

func TestRetryClientOnRetry(t *testing.T) {
	mock := NewMockClient(3)
	mock.Errors = []error{sruerrors.ErrNetworkFailure, sruerrors.ErrNetworkFailure}
	client := NewRetryClient(mock, fastRetryConfig(5), zerolog.Nop())

	retries := 0
	client.OnRetry = func(error) { retries++ }

	if _, err := client.FetchPage(context.Background(), FetchOptions{PageSize: 5}); err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if retries != 2 {
		t.Errorf("OnRetry called %d times, want 2", retries)
	}
}

func TestRetryClientContextCancellation(t *testing.T) {
	mock := NewMockClient(3)
	mock.Errors = []error{sruerrors.ErrNetworkFailure, sruerrors.ErrNetworkFailure, sruerrors.ErrNetworkFailure}
	client := NewRetryClient(mock, &RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    time.Hour,
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 2.0,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.FetchPage(ctx, FetchOptions{PageSize: 5})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if errors.Is(err, sruerrors.ErrRetriesExhausted) {
		t.Errorf("Deadline reported as exhausted retries: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 10*time.Second {
		t.Errorf("Backoff did not stop on deadline, took %v", elapsed)
	}
	if mock.Calls() != 1 {
		t.Errorf("Expected 1 call, got %d", mock.Calls())
	}
}

func TestRetryClientAgainstServer(t *testing.T) {
	server := testutil.NewSRUServer(t, 12, testutil.WithFailures(http.StatusServiceUnavailable, 0))
	client := NewRetryClient(newTestHTTPClient(server.URL), fastRetryConfig(3), zerolog.Nop())

	page, err := client.FetchPage(context.Background(), FetchOptions{Start: 10, PageSize: 5})
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(page.Records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(page.Records))
	}
	// 503 and malformed body are both retried
	if got := server.RequestCount(); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
}

func TestRetryClientDiagnosticAgainstServer(t *testing.T) {
	server := testutil.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testutil.NewResponseBuilder().WithDiagnostic("Unsupported index").Build()))
	})
	client := NewRetryClient(newTestHTTPClient(server.URL), fastRetryConfig(3), zerolog.Nop())

	_, err := client.FetchPage(context.Background(), FetchOptions{PageSize: 5})
	if !errors.Is(err, sruerrors.ErrQueryRejected) {
		t.Fatalf("Expected ErrQueryRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "Unsupported index") {
		t.Errorf("Error does not carry the diagnostic: %v", err)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	want := &RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}
	if *cfg != *want {
		t.Errorf("DefaultRetryConfig() = %+v, want %+v", cfg, want)
	}
}
