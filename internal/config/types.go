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

// Package config types define the configuration structures used throughout
// sirseer-sru. These types represent settings that can be loaded from YAML
// or TOML configuration files, environment variables, or command-line flags.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for sirseer-sru.
type Config struct {
	SRU     SRUConfig     `yaml:"sru" toml:"sru"`
	Crawl   CrawlConfig   `yaml:"crawl" toml:"crawl"`
	State   StateConfig   `yaml:"state" toml:"state"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

// SRUConfig identifies the endpoint and the result set to crawl.
type SRUConfig struct {
	Endpoint     string   `yaml:"endpoint" toml:"endpoint"`
	Query        string   `yaml:"query" toml:"query"`
	RecordSchema string   `yaml:"record_schema" toml:"record_schema"`
	SourceName   string   `yaml:"source_name" toml:"source_name"`
	Timeout      Duration `yaml:"timeout" toml:"timeout"`
}

// CrawlConfig controls paging, pacing and retries.
type CrawlConfig struct {
	PageSize       int      `yaml:"page_size" toml:"page_size"`
	Pause          Duration `yaml:"pause" toml:"pause"`
	MaxRunDuration Duration `yaml:"max_run_duration" toml:"max_run_duration"`
	MaxRetries     int      `yaml:"max_retries" toml:"max_retries"`
	InitialBackoff Duration `yaml:"initial_backoff" toml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff" toml:"max_backoff"`
}

// StateConfig locates the cursor and run metadata.
type StateConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// OutputConfig selects the sink records are written to.
type OutputConfig struct {
	Kind        string `yaml:"kind" toml:"kind"`
	Path        string `yaml:"path" toml:"path"`
	Dir         string `yaml:"dir" toml:"dir"`
	ShardSize   int    `yaml:"shard_size" toml:"shard_size"`
	Compression string `yaml:"compression" toml:"compression"`
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" toml:"textfile"`
}

// Duration is a time.Duration written as a Go duration string ("2s", "6h")
// in configuration files.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText parses a duration string. It is used by go-toml.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// DefaultConfig returns a Config with defaults suitable for crawling
// Officiële Publicaties from zoek.officielebekendmakingen.nl.
func DefaultConfig() *Config {
	return &Config{
		SRU: SRUConfig{
			Endpoint:     "https://zoek.officielebekendmakingen.nl/sru/Search",
			Query:        `c.product-area=="officielepublicaties"`,
			RecordSchema: "gzd",
			SourceName:   "Officiële Publicaties",
			Timeout:      Duration(60 * time.Second),
		},
		Crawl: CrawlConfig{
			PageSize:       1000,
			Pause:          Duration(2 * time.Second),
			MaxRunDuration: Duration(6 * time.Hour),
			MaxRetries:     5,
			InitialBackoff: Duration(2 * time.Second),
			MaxBackoff:     Duration(60 * time.Second),
		},
		State: StateConfig{
			Dir: "~/.sirseer/sru/state",
		},
		Output: OutputConfig{
			Kind:        "ndjson",
			Path:        "output/records.ndjson",
			Dir:         "shards",
			ShardSize:   300,
			Compression: "none",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
