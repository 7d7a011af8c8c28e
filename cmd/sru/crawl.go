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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-sru/internal/config"
	"github.com/sirseerhq/sirseer-sru/internal/crawler"
	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
	"github.com/sirseerhq/sirseer-sru/internal/logging"
	"github.com/sirseerhq/sirseer-sru/internal/metadata"
	"github.com/sirseerhq/sirseer-sru/internal/output"
	"github.com/sirseerhq/sirseer-sru/internal/sru"
	"github.com/sirseerhq/sirseer-sru/internal/state"
	"github.com/sirseerhq/sirseer-sru/internal/telemetry"
	"github.com/sirseerhq/sirseer-sru/pkg/version"
)

// newCrawlCommand creates the crawl command
func newCrawlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the result set from the committed cursor",
		Long: `Crawl fetches pages from the SRU endpoint starting at the committed cursor
and appends every record to the configured output. The cursor is committed
after each page is flushed, so the command can be interrupted and rerun at
any time.

The crawl ends when the endpoint reports no further records, when
--max-run-duration elapses, or on SIGINT/SIGTERM. The last two are graceful
stops: the cursor stays at the last committed page and the exit code is 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = runCrawl(ctx, cfg, cmd.ErrOrStderr())
			return err
		},
	}

	flags := cmd.Flags()
	flags.Int("page-size", 0, "Records per request (1-1000)")
	flags.Duration("pause", 0, "Pause between pages")
	flags.Duration("max-run-duration", 0, "Stop gracefully after this long")
	flags.Duration("timeout", 0, "Per-request HTTP timeout")
	flags.Int("max-retries", 0, "Retries per page for transient failures")
	flags.String("output", "", "Output kind (ndjson, shards, sqlite)")
	flags.String("output-path", "", "NDJSON file or SQLite database path")
	flags.String("output-dir", "", "Shard directory")
	flags.Int("shard-size", 0, "Records per shard")
	flags.String("compression", "", "Shard compression (none, gzip, zstd)")
	flags.String("log-file", "", "Also append logs to this file")
	flags.String("metrics-textfile", "", "Write Prometheus metrics to this file when the run ends")

	return cmd
}

// runCrawl wires the crawler for cfg and runs it once. Run metadata and the
// metrics textfile are written whatever the outcome.
func runCrawl(ctx context.Context, cfg *config.Config, logOutput io.Writer) (*crawler.Result, error) {
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: logOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sruerrors.ErrInvalidConfig, err)
	}
	defer closeLog()

	if limit := cfg.Crawl.MaxRunDuration.Std(); limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	tracker := metadata.New()
	metrics := telemetry.New()

	client := sru.NewHTTPClient(sru.ClientConfig{
		Endpoint:     cfg.SRU.Endpoint,
		Query:        cfg.SRU.Query,
		RecordSchema: cfg.SRU.RecordSchema,
		SourceName:   cfg.SRU.SourceName,
		Timeout:      cfg.SRU.Timeout.Std(),
		Logger:       logger,
		OnResponse: func(status int, elapsed time.Duration) {
			tracker.IncrementAPICall()
			metrics.Response(status)
			metrics.RequestDuration.Observe(elapsed.Seconds())
		},
	})
	retrying := sru.NewRetryClient(client, &sru.RetryConfig{
		MaxRetries:        cfg.Crawl.MaxRetries,
		InitialBackoff:    cfg.Crawl.InitialBackoff.Std(),
		MaxBackoff:        cfg.Crawl.MaxBackoff.Std(),
		BackoffMultiplier: 2.0,
	}, logger)
	retrying.OnRetry = func(error) {
		tracker.IncrementRetry()
		metrics.Retries.Inc()
	}

	statePath := state.StateFilePath(cfg.State.Dir, cfg.SRU.Endpoint, cfg.SRU.Query)
	store := state.NewFileStore(statePath, cfg.SRU.Endpoint, cfg.SRU.Query, logger)

	sink, err := output.Open(output.Options{
		Kind:        cfg.Output.Kind,
		Path:        cfg.Output.Path,
		Dir:         cfg.Output.Dir,
		ShardSize:   cfg.Output.ShardSize,
		Compression: cfg.Output.Compression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", errors.Join(err, sruerrors.ErrSinkWrite))
	}

	fetcher := crawler.New(retrying, store, sink, crawler.Config{
		PageSize: cfg.Crawl.PageSize,
		Pause:    cfg.Crawl.Pause.Std(),
		RunID:    tracker.RunID(),
		Logger:   logger,
		Metrics:  metrics,
		Tracker:  tracker,
	})

	result, runErr := fetcher.Run(ctx)
	if closeErr := sink.Close(); closeErr != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close output: %w", errors.Join(closeErr, sruerrors.ErrSinkWrite))
	}

	saveRunMetadata(cfg, tracker, result, runErr, logger)
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
	}

	event := logger.Info()
	if runErr != nil {
		event = logger.Error().Err(runErr)
	}
	event.
		Str("state", string(result.State)).
		Int("start_position", result.StartPosition).
		Int("end_position", result.EndPosition).
		Int("pages", result.Pages).
		Int("records", result.Records).
		Msg("crawl finished")

	return result, runErr
}

// saveRunMetadata records the run next to the cursor, linked to the
// previous run for the same result set. Failures are logged, not returned.
func saveRunMetadata(cfg *config.Config, tracker *metadata.Tracker, result *crawler.Result, runErr error, logger zerolog.Logger) {
	dir := runsDir(cfg)

	var previous *metadata.RunRef
	latest, err := metadata.LoadLatestMetadata(dir, cfg.SRU.Endpoint, cfg.SRU.Query)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read previous run metadata")
	} else if latest != nil {
		previous = latest.Ref()
	}

	md := tracker.GenerateMetadata(version.Version,
		metadata.RunParams{
			Endpoint: cfg.SRU.Endpoint,
			Query:    cfg.SRU.Query,
			PageSize: cfg.Crawl.PageSize,
		},
		metadata.RunOutcome{
			StartPosition: result.StartPosition,
			EndPosition:   result.EndPosition,
			State:         string(result.State),
			Err:           runErr,
		},
		previous,
	)
	if err := metadata.SaveMetadata(md, dir); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("failed to save run metadata")
	}
}
