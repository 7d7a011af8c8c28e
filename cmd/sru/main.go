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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
	"github.com/sirseerhq/sirseer-sru/pkg/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sirseer-sru",
		Short: "Resumable crawler for SRU search endpoints",
		Long: `SirSeer SRU walks the result set of an SRU 2.0 searchRetrieve query page
by page. Every page is appended to the output and flushed before the cursor
advances, so a crawl interrupted at any point resumes without gaps.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (YAML, or TOML with a .toml extension)")
	flags.String("endpoint", "", "SRU endpoint URL")
	flags.String("query", "", "CQL query identifying the result set")
	flags.String("state-dir", "", "Directory holding cursors and run metadata")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(newCrawlCommand(), newStatusCommand(), newResetCommand())
	return rootCmd
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, sruerrors.ErrQueryRejected) ||
		errors.Is(err, sruerrors.ErrInvalidConfig) {
		return 2 // Rejected query or bad configuration
	}

	if errors.Is(err, sruerrors.ErrRetriesExhausted) ||
		errors.Is(err, sruerrors.ErrNetworkFailure) ||
		errors.Is(err, sruerrors.ErrMalformedPage) {
		return 3 // Fetch failures
	}

	if errors.Is(err, sruerrors.ErrStateWrite) ||
		errors.Is(err, sruerrors.ErrSinkWrite) {
		return 4 // Durability failures
	}

	return 1 // General error
}
