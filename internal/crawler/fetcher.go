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
	"fmt"
	"time"

	"github.com/rs/zerolog"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
	"github.com/sirseerhq/sirseer-sru/internal/metadata"
	"github.com/sirseerhq/sirseer-sru/internal/output"
	"github.com/sirseerhq/sirseer-sru/internal/sru"
	"github.com/sirseerhq/sirseer-sru/internal/state"
	"github.com/sirseerhq/sirseer-sru/internal/telemetry"
)

// State is a step of the fetch loop.
type State string

// Fetch loop states.
const (
	StateStart          State = "START"
	StateFetching       State = "FETCHING"
	StateCommitting     State = "COMMITTING"
	StateExhausted      State = "EXHAUSTED"
	StateStopped        State = "STOPPED"
	StateStoppedOnError State = "STOPPED_ON_ERROR"
)

// DefaultPageSize is used when Config.PageSize is not positive.
const DefaultPageSize = 1000

// Config configures a Fetcher.
type Config struct {
	// PageSize is the number of records requested per page.
	PageSize int

	// Pause is the wait between two pages. Zero disables it.
	Pause time.Duration

	// RunID is stored in the cursor of every page this run commits.
	RunID string

	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	Tracker *metadata.Tracker

	// Now returns the commit time. Defaults to time.Now.
	Now func() time.Time
}

// Result summarizes a run.
type Result struct {
	StartPosition int
	EndPosition   int
	Pages         int
	Records       int
	State         State
}

// Fetcher drives the fetch, append, commit loop for one result set.
type Fetcher struct {
	client sru.Client
	store  state.Store
	sink   output.Sink
	config Config
	logger zerolog.Logger
	state  State
}

// New creates a Fetcher. The sink is not closed by the Fetcher.
func New(client sru.Client, store state.Store, sink output.Sink, cfg Config) *Fetcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.Nop()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = metadata.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RunID == "" {
		cfg.RunID = cfg.Tracker.RunID()
	}

	return &Fetcher{
		client: client,
		store:  store,
		sink:   sink,
		config: cfg,
		logger: cfg.Logger.With().Str("component", "crawler").Logger(),
		state:  StateStart,
	}
}

// Run fetches pages from the committed cursor until the result set is
// exhausted, the context ends, or an error occurs. The returned Result is
// never nil. A canceled or expired context yields a nil error.
func (f *Fetcher) Run(ctx context.Context) (*Result, error) {
	cursor := f.store.Load(ctx)
	result := &Result{
		StartPosition: cursor.Position,
		EndPosition:   cursor.Position,
	}
	f.config.Metrics.Position.Set(float64(cursor.Position))

	f.logger.Info().
		Int("position", cursor.Position).
		Int("page_size", f.config.PageSize).
		Msg("crawl started")

	for {
		if ctx.Err() != nil {
			return f.stop(result, ctx.Err())
		}

		f.transition(StateFetching)
		page, err := f.client.FetchPage(ctx, sru.FetchOptions{
			Start:    cursor.Position,
			PageSize: f.config.PageSize,
		})
		if err != nil {
			if ctx.Err() != nil {
				return f.stop(result, ctx.Err())
			}
			return f.fail(result, fmt.Errorf("fetch page at position %d: %w", cursor.Position, err))
		}

		if len(page.Records) == 0 {
			return f.exhaust(result)
		}

		next := cursor.Position + len(page.Records)
		if page.NextPosition != nil {
			if *page.NextPosition <= cursor.Position {
				return f.fail(result, fmt.Errorf("next position %d does not advance past %d: %w",
					*page.NextPosition, cursor.Position, sruerrors.ErrMalformedPage))
			}
			next = *page.NextPosition
		}

		f.transition(StateCommitting)
		if err := f.write(page.Records); err != nil {
			return f.fail(result, fmt.Errorf("write page at position %d: %w", cursor.Position, err))
		}

		updated := *cursor
		updated.Advance(next, len(page.Records), f.config.Now())
		updated.LastFetchID = f.config.RunID
		if err := f.store.Save(ctx, &updated); err != nil {
			if !errors.Is(err, sruerrors.ErrStateWrite) {
				err = errors.Join(err, sruerrors.ErrStateWrite)
			}
			return f.fail(result, fmt.Errorf("commit position %d: %w", next, err))
		}
		cursor = &updated

		f.recordPage(result, page.Records, cursor.Position)

		if f.exhausted(page, cursor.Position) {
			return f.exhaust(result)
		}

		if f.config.Pause > 0 {
			timer := time.NewTimer(f.config.Pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return f.stop(result, ctx.Err())
			case <-timer.C:
			}
		}
	}
}

// State returns the current loop state.
func (f *Fetcher) State() State {
	return f.state
}

// exhausted decides whether the page just committed was the last one. An
// explicit next position always means more pages follow. Without one, a
// reported total decides, and failing that a short page ends the run.
func (f *Fetcher) exhausted(page *sru.Page, position int) bool {
	if page.NextPosition != nil {
		return false
	}
	if page.Total != nil {
		return position >= *page.Total
	}
	return len(page.Records) < f.config.PageSize
}

func (f *Fetcher) write(records []sru.Record) error {
	for _, rec := range records {
		if err := f.sink.Append(rec); err != nil {
			return errors.Join(err, sruerrors.ErrSinkWrite)
		}
	}
	if err := f.sink.Flush(); err != nil {
		return errors.Join(err, sruerrors.ErrSinkWrite)
	}
	return nil
}

func (f *Fetcher) recordPage(result *Result, records []sru.Record, position int) {
	result.Pages++
	result.Records += len(records)
	result.EndPosition = position

	f.config.Tracker.RecordPage(len(records), records[0].Identifier, records[len(records)-1].Identifier)
	f.config.Metrics.Pages.Inc()
	f.config.Metrics.Records.Add(float64(len(records)))
	f.config.Metrics.Position.Set(float64(position))
	f.config.Metrics.LastSuccess.SetToCurrentTime()

	f.logger.Info().
		Int("records", len(records)).
		Int("position", position).
		Int("total_records", result.Records).
		Msg("page committed")
}

func (f *Fetcher) transition(to State) {
	if f.state == to {
		return
	}
	f.logger.Debug().Str("from", string(f.state)).Str("to", string(to)).Msg("state transition")
	f.state = to
}

func (f *Fetcher) exhaust(result *Result) (*Result, error) {
	f.transition(StateExhausted)
	result.State = StateExhausted
	f.logger.Info().
		Int("position", result.EndPosition).
		Int("records", result.Records).
		Msg("result set exhausted")
	return result, nil
}

func (f *Fetcher) stop(result *Result, cause error) (*Result, error) {
	f.transition(StateStopped)
	result.State = StateStopped
	f.logger.Info().
		AnErr("cause", cause).
		Int("position", result.EndPosition).
		Int("records", result.Records).
		Msg("crawl stopped")
	return result, nil
}

func (f *Fetcher) fail(result *Result, err error) (*Result, error) {
	f.transition(StateStoppedOnError)
	result.State = StateStoppedOnError
	f.logger.Error().
		Err(err).
		Int("position", result.EndPosition).
		Msg("crawl stopped on error")
	return result, err
}
