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

package fetcherror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
)

func TestSRUErrorInspector_IsNetworkError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:80: connect: connection refused"),
			want: true,
		},
		{
			name: "connection reset",
			err:  errors.New("read: connection reset by peer"),
			want: true,
		},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("get page: %w", sruerrors.ErrNetworkFailure),
			want: true,
		},
		{
			name: "unrelated error",
			err:  errors.New("something went wrong"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSRUErrorInspector_IsServerError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "503 status error",
			err:  &StatusError{StatusCode: http.StatusServiceUnavailable, URL: "http://sru"},
			want: true,
		},
		{
			name: "429 status error wrapped",
			err:  fmt.Errorf("page 1: %w", &StatusError{StatusCode: http.StatusTooManyRequests}),
			want: true,
		},
		{
			name: "404 status error",
			err:  &StatusError{StatusCode: http.StatusNotFound},
			want: false,
		},
		{
			name: "string fallback",
			err:  errors.New("upstream returned status 502"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsServerError(tt.err); got != tt.want {
				t.Errorf("IsServerError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSRUErrorInspector_IsRetryable(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "malformed page",
			err:  fmt.Errorf("decode: %w", sruerrors.ErrMalformedPage),
			want: true,
		},
		{
			name: "server error",
			err:  &StatusError{StatusCode: http.StatusBadGateway},
			want: true,
		},
		{
			name: "query rejected",
			err:  fmt.Errorf("diagnostic 10: %w", sruerrors.ErrQueryRejected),
			want: false,
		},
		{
			name: "context canceled",
			err:  fmt.Errorf("request: %w", context.Canceled),
			want: false,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: false,
		},
		{
			name: "bad request",
			err:  &StatusError{StatusCode: http.StatusBadRequest},
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{StatusCode: 503, URL: "https://example.org/sru"}
	want := "sru endpoint https://example.org/sru returned status 503"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
