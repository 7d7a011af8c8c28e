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

package metadata

import (
	"time"
)

// RunMetadata is the record written at the end of every crawl run. It
// captures what was requested, how far the run got, and how it ended, so
// operators can follow the history of a cursor without reading logs.
type RunMetadata struct {
	Version     string     `json:"version"`
	RunID       string     `json:"run_id"`
	Endpoint    string     `json:"endpoint"`
	Query       string     `json:"query"`
	PageSize    int        `json:"page_size"`
	Results     RunResults `json:"results"`
	Outcome     string     `json:"outcome"`
	Error       string     `json:"error,omitempty"`
	PreviousRun *RunRef    `json:"previous_run,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`

	// Pages and Records are duplicated at top level for quick inspection.
	Pages   int `json:"pages"`
	Records int `json:"records"`
}

// RunParams captures the inputs of a run.
type RunParams struct {
	Endpoint string
	Query    string
	PageSize int
}

// RunOutcome captures where a run ended.
type RunOutcome struct {
	StartPosition int
	EndPosition   int
	State         string
	Err           error
}

// RunResults holds the statistics collected by a Tracker.
type RunResults struct {
	StartPosition   int    `json:"start_position"`
	EndPosition     int    `json:"end_position"`
	FirstIdentifier string `json:"first_identifier,omitempty"`
	LastIdentifier  string `json:"last_identifier,omitempty"`
	APICallCount    int    `json:"api_calls_made"`
	RetryCount      int    `json:"retries"`
}

// RunRef links a run to the one before it for the same cursor.
type RunRef struct {
	RunID       string    `json:"run_id"`
	EndPosition int       `json:"end_position"`
	CompletedAt time.Time `json:"completed_at"`
}
