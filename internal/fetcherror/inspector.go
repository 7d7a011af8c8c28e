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
	"net"
	"strings"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
)

// Inspector classifies errors returned by the SRU transport and decoder.
type Inspector interface {
	// IsNetworkError returns true if the error represents a connectivity problem.
	IsNetworkError(err error) bool

	// IsServerError returns true if the endpoint answered with a transient
	// HTTP status (5xx or 429).
	IsServerError(err error) bool

	// IsMalformedError returns true if the response body could not be decoded.
	IsMalformedError(err error) bool

	// IsRejectedError returns true if the endpoint rejected the query itself.
	IsRejectedError(err error) bool

	// IsRetryable returns true if another attempt at the same page may succeed.
	IsRetryable(err error) bool
}

// SRUErrorInspector checks the error chain for known sentinels and falls back
// to string inspection for errors produced outside this module.
type SRUErrorInspector struct{}

// NewInspector creates a new SRUErrorInspector.
func NewInspector() Inspector {
	return &SRUErrorInspector{}
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *SRUErrorInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sruerrors.ErrNetworkFailure) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "unexpected eof") ||
		strings.Contains(errStr, "network is unreachable")
}

// IsServerError checks if the error carries a transient HTTP status.
func (i *SRUErrorInspector) IsServerError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "status 500") ||
		strings.Contains(errStr, "status 502") ||
		strings.Contains(errStr, "status 503") ||
		strings.Contains(errStr, "status 504") ||
		strings.Contains(errStr, "status 429")
}

// IsMalformedError checks if the error is a decoding failure.
func (i *SRUErrorInspector) IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sruerrors.ErrMalformedPage)
}

// IsRejectedError checks if the endpoint rejected the query with diagnostics.
func (i *SRUErrorInspector) IsRejectedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sruerrors.ErrQueryRejected)
}

// IsRetryable reports whether the failure is transient. Cancellation and
// query rejection are never retried. A per-request timeout surfaces as
// context.DeadlineExceeded too, so errors the transport already tagged as
// ErrNetworkFailure are checked before the context sentinels.
func (i *SRUErrorInspector) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if i.IsRejectedError(err) {
		return false
	}
	if errors.Is(err, sruerrors.ErrNetworkFailure) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return i.IsNetworkError(err) || i.IsServerError(err) || i.IsMalformedError(err)
}
