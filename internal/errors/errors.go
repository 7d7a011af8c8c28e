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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrNetworkFailure indicates the SRU endpoint could not be reached or
	// answered with a transient server error.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrMalformedPage indicates a response that could not be decoded as an
	// SRU searchRetrieve response. Retried like a transient error.
	// Maps to exit code 3 once retries are exhausted.
	ErrMalformedPage = errors.New("malformed sru response")

	// ErrRetriesExhausted indicates the retry budget for a single page ran out.
	// Maps to exit code 3.
	ErrRetriesExhausted = errors.New("fetch retries exhausted")

	// ErrQueryRejected indicates the endpoint answered with SRU diagnostics,
	// for example an invalid CQL query or unsupported record schema.
	// Maps to exit code 2.
	ErrQueryRejected = errors.New("sru query rejected")

	// ErrStateWrite indicates the cursor could not be persisted.
	// Maps to exit code 4.
	ErrStateWrite = errors.New("state write failed")

	// ErrSinkWrite indicates records could not be durably appended to the output.
	// Maps to exit code 4.
	ErrSinkWrite = errors.New("output write failed")

	// ErrInvalidConfig indicates the configuration failed validation.
	// Maps to exit code 2.
	ErrInvalidConfig = errors.New("invalid configuration")
)
