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
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/sirseerhq/sirseer-sru/internal/config"
)

// runsDirName is the subdirectory of the state dir holding run metadata.
const runsDirName = "runs"

// loadConfig resolves the effective configuration: defaults, config file,
// environment, then every flag the user actually set.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(flags, cfg); err != nil {
		return nil, err
	}
	cfg.ExpandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies changed flags into cfg. Flags that were not given on
// the command line never override file or environment values.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	stringFlags := map[string]*string{
		"endpoint":         &cfg.SRU.Endpoint,
		"query":            &cfg.SRU.Query,
		"state-dir":        &cfg.State.Dir,
		"log-level":        &cfg.Log.Level,
		"log-format":       &cfg.Log.Format,
		"log-file":         &cfg.Log.File,
		"output":           &cfg.Output.Kind,
		"output-path":      &cfg.Output.Path,
		"output-dir":       &cfg.Output.Dir,
		"compression":      &cfg.Output.Compression,
		"metrics-textfile": &cfg.Metrics.Textfile,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	ints := map[string]*int{
		"page-size":   &cfg.Crawl.PageSize,
		"shard-size":  &cfg.Output.ShardSize,
		"max-retries": &cfg.Crawl.MaxRetries,
	}
	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	durations := map[string]*config.Duration{
		"pause":            &cfg.Crawl.Pause,
		"max-run-duration": &cfg.Crawl.MaxRunDuration,
		"timeout":          &cfg.SRU.Timeout,
	}
	for name, dst := range durations {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetDuration(name)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = config.Duration(v)
	}
	return nil
}

// runsDir returns where run metadata is kept for cfg.
func runsDir(cfg *config.Config) string {
	return filepath.Join(cfg.State.Dir, runsDirName)
}
