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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
	"github.com/sirseerhq/sirseer-sru/internal/fetcherror"
)

// RetryConfig configures the retry behavior for page fetches
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first try
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps a Client with automatic retry logic for transient
// network failures, server errors and malformed responses.
type RetryClient struct {
	client    Client
	config    *RetryConfig
	inspector fetcherror.Inspector
	logger    zerolog.Logger

	// OnRetry, if set, is called before every backoff wait.
	OnRetry func(err error)
}

// NewRetryClient creates a new RetryClient with the given configuration
func NewRetryClient(client Client, config *RetryConfig, logger zerolog.Logger) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryClient{
		client:    client,
		config:    config,
		inspector: fetcherror.NewInspector(),
		logger:    logger.With().Str("component", "retry").Logger(),
	}
}

// FetchPage implements the Client interface with retry logic. Non-retryable
// errors are returned unchanged after the first attempt. When every attempt
// fails the last error is returned wrapped with ErrRetriesExhausted.
func (r *RetryClient) FetchPage(ctx context.Context, opts FetchOptions) (*Page, error) {
	attempt := 0
	operation := func() (*Page, error) {
		attempt++
		page, err := r.client.FetchPage(ctx, opts)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil || !r.inspector.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Int("start", opts.Start).
			Int("attempt", attempt).
			Int("max_retries", r.config.MaxRetries).
			Dur("backoff", wait).
			Msg("page fetch failed, retrying")
		if r.OnRetry != nil {
			r.OnRetry(err)
		}
	}

	page, err := backoff.RetryNotifyWithData(operation, r.policy(ctx), notify)
	if err == nil {
		return page, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return nil, fmt.Errorf("%w: %w", ctxErr, err)
	}
	if r.inspector.IsRetryable(err) {
		return nil, fmt.Errorf("failed after %d attempts: %w", attempt, errors.Join(err, sruerrors.ErrRetriesExhausted))
	}
	return nil, err
}

// policy builds a fresh backoff schedule for one page.
func (r *RetryClient) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialBackoff
	b.MaxInterval = r.config.MaxBackoff
	b.Multiplier = r.config.BackoffMultiplier
	b.RandomizationFactor = 0.1
	b.MaxElapsedTime = 0
	b.Reset()

	retries := r.config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}
