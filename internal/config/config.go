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

// Package config provides configuration management for sirseer-sru with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file (YAML, or TOML when the file ends in .toml)
//  4. Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
)

// MaxPageSize is the largest maximumRecords the crawler will request.
const MaxPageSize = 1000

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-sru.yaml, .sirseer-sru.yml, .sirseer-sru.toml (current directory)
//   - ~/.sirseer/sru.yaml, ~/.sirseer/sru.toml
//
// Environment variables are applied after loading the config file. Paths
// have ~ and environment variables expanded.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		home := os.Getenv("HOME")
		defaultPaths := []string{
			".sirseer-sru.yaml",
			".sirseer-sru.yml",
			".sirseer-sru.toml",
			filepath.Join(home, ".sirseer", "sru.yaml"),
			filepath.Join(home, ".sirseer", "sru.toml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.ExpandPaths()
	return cfg, nil
}

// loadConfigFile reads a YAML or TOML config file into cfg
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) error {
	if endpoint := os.Getenv("SRU_ENDPOINT"); endpoint != "" {
		cfg.SRU.Endpoint = endpoint
	}
	if query := os.Getenv("SRU_QUERY"); query != "" {
		cfg.SRU.Query = query
	}
	if pageSize := os.Getenv("SRU_PAGE_SIZE"); pageSize != "" {
		size, err := parsePositiveInt(pageSize)
		if err != nil {
			return fmt.Errorf("SRU_PAGE_SIZE: %w", err)
		}
		cfg.Crawl.PageSize = size
	}
	if stateDir := os.Getenv("SRU_STATE_DIR"); stateDir != "" {
		cfg.State.Dir = stateDir
	}
	if outputDir := os.Getenv("SRU_OUTPUT_DIR"); outputDir != "" {
		cfg.Output.Dir = outputDir
		cfg.Output.Path = filepath.Join(outputDir, filepath.Base(cfg.Output.Path))
	}
	if level := os.Getenv("SRU_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	return nil
}

// ExpandPaths expands ~ and environment variables in every path setting.
func (c *Config) ExpandPaths() {
	c.State.Dir = expandPath(c.State.Dir)
	c.Output.Path = expandPath(c.Output.Path)
	c.Output.Dir = expandPath(c.Output.Dir)
	c.Log.File = expandPath(c.Log.File)
	c.Metrics.Textfile = expandPath(c.Metrics.Textfile)
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// Validate checks if the configuration contains valid values. Every
// returned error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", sruerrors.ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.SRU.Endpoint == "" {
		return fmt.Errorf("sru endpoint cannot be empty")
	}
	u, err := url.Parse(c.SRU.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("sru endpoint %q is not an http(s) URL", c.SRU.Endpoint)
	}
	if strings.TrimSpace(c.SRU.Query) == "" {
		return fmt.Errorf("sru query cannot be empty")
	}
	if c.SRU.Timeout < 0 {
		return fmt.Errorf("sru timeout cannot be negative")
	}

	if c.Crawl.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got: %d", c.Crawl.PageSize)
	}
	if c.Crawl.PageSize > MaxPageSize {
		return fmt.Errorf("page size %d exceeds limit of %d", c.Crawl.PageSize, MaxPageSize)
	}
	if c.Crawl.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got: %d", c.Crawl.MaxRetries)
	}
	if c.Crawl.Pause < 0 || c.Crawl.MaxRunDuration < 0 || c.Crawl.InitialBackoff < 0 || c.Crawl.MaxBackoff < 0 {
		return fmt.Errorf("crawl durations cannot be negative")
	}

	if c.State.Dir == "" {
		return fmt.Errorf("state directory cannot be empty")
	}

	switch c.Output.Kind {
	case "ndjson", "sqlite":
		if c.Output.Path == "" {
			return fmt.Errorf("output path cannot be empty for %s output", c.Output.Kind)
		}
	case "shards":
		if c.Output.Dir == "" {
			return fmt.Errorf("output directory cannot be empty for shards output")
		}
		if c.Output.ShardSize <= 0 {
			return fmt.Errorf("shard size must be positive, got: %d", c.Output.ShardSize)
		}
	default:
		return fmt.Errorf("unknown output kind %q (want ndjson, shards or sqlite)", c.Output.Kind)
	}
	switch c.Output.Compression {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("unknown compression %q (want none, gzip or zstd)", c.Output.Compression)
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (want console or json)", c.Log.Format)
	}
	return nil
}
