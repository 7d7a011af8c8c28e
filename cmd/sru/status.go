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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-sru/internal/config"
	"github.com/sirseerhq/sirseer-sru/internal/metadata"
	"github.com/sirseerhq/sirseer-sru/internal/state"
)

// statusReport is what the status command prints.
type statusReport struct {
	Endpoint    string                `json:"endpoint"`
	Query       string                `json:"query"`
	StateFile   string                `json:"state_file"`
	Cursor      *state.Cursor         `json:"cursor"`
	CursorError string                `json:"cursor_error,omitempty"`
	LastRun     *metadata.RunMetadata `json:"last_run"`
}

// newStatusCommand creates the status command
func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the committed cursor and the last run as JSON",
		Long: `Status prints the committed cursor for the configured endpoint and query,
together with the metadata of the most recent crawl run. A missing cursor is
reported as null; an unreadable one is reported in cursor_error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runStatus(cfg, cmd.OutOrStdout())
		},
	}
}

// runStatus writes the status report for cfg to w
func runStatus(cfg *config.Config, w io.Writer) error {
	report := statusReport{
		Endpoint:  cfg.SRU.Endpoint,
		Query:     cfg.SRU.Query,
		StateFile: state.StateFilePath(cfg.State.Dir, cfg.SRU.Endpoint, cfg.SRU.Query),
	}

	cursor, err := state.LoadState(report.StateFile)
	switch {
	case err == nil:
		report.Cursor = cursor
	case errors.Is(err, state.ErrNoState):
	default:
		report.CursorError = err.Error()
	}

	lastRun, err := metadata.LoadLatestMetadata(runsDir(cfg), cfg.SRU.Endpoint, cfg.SRU.Query)
	if err != nil {
		return fmt.Errorf("failed to read run metadata: %w", err)
	}
	report.LastRun = lastRun

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
