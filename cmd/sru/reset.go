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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-sru/internal/config"
	"github.com/sirseerhq/sirseer-sru/internal/state"
)

// newResetCommand creates the reset command
func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the committed cursor so the next crawl starts over",
		Long: `Reset deletes the cursor for the configured endpoint and query. The next
crawl starts at the first record. Output already written and run metadata
are left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runReset(cfg, cmd.ErrOrStderr())
		},
	}
}

// runReset removes the state file for cfg and reports what it did to w
func runReset(cfg *config.Config, w io.Writer) error {
	path := state.StateFilePath(cfg.State.Dir, cfg.SRU.Endpoint, cfg.SRU.Query)
	if err := state.DeleteState(path); err != nil {
		return err
	}
	fmt.Fprintf(w, "Cursor reset for %s (%s)\n", cfg.SRU.Query, path)
	return nil
}
