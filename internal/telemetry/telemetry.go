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

// Package telemetry exposes crawl counters as Prometheus metrics. A crawl is
// a short-lived batch process, so metrics are not served over HTTP; they are
// written once to a node-exporter textfile when the run ends.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sru_crawler"

// Counter is the subset of prometheus.Counter the crawler uses.
type Counter interface {
	Inc()
	Add(float64)
}

// Gauge is the subset of prometheus.Gauge the crawler uses.
type Gauge interface {
	Set(float64)
	SetToCurrentTime()
}

// Histogram is the subset of prometheus.Histogram the crawler uses.
type Histogram interface {
	Observe(float64)
}

// NoopStat discards every observation.
type NoopStat struct{}

func (NoopStat) Inc()              {}
func (NoopStat) Add(float64)       {}
func (NoopStat) Set(float64)       {}
func (NoopStat) SetToCurrentTime() {}
func (NoopStat) Observe(float64)   {}

// Metrics holds every metric a crawl run reports.
type Metrics struct {
	registry *prometheus.Registry

	Pages           Counter
	Records         Counter
	Retries         Counter
	RequestDuration Histogram
	Position        Gauge
	LastSuccess     Gauge

	responses *prometheus.CounterVec
}

// New creates metrics registered on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_committed_total",
		Help:      "Pages written to the sink and committed to the cursor.",
	})
	records := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_committed_total",
		Help:      "Records written to the sink and committed to the cursor.",
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_retries_total",
		Help:      "Page fetches retried after a transient failure.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Round-trip time of searchRetrieve requests.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	position := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cursor_position",
		Help:      "Committed cursor position.",
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_commit_timestamp_seconds",
		Help:      "Unix time of the last committed page.",
	})
	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_responses_total",
		Help:      "HTTP responses received from the SRU endpoint by status code.",
	}, []string{"code"})

	registry.MustRegister(pages, records, retries, duration, position, lastSuccess, responses)

	return &Metrics{
		registry:        registry,
		Pages:           pages,
		Records:         records,
		Retries:         retries,
		RequestDuration: duration,
		Position:        position,
		LastSuccess:     lastSuccess,
		responses:       responses,
	}
}

// Nop returns metrics that record nothing.
func Nop() *Metrics {
	return &Metrics{
		Pages:           NoopStat{},
		Records:         NoopStat{},
		Retries:         NoopStat{},
		RequestDuration: NoopStat{},
		Position:        NoopStat{},
		LastSuccess:     NoopStat{},
	}
}

// Response counts one HTTP response with the given status code.
func (m *Metrics) Response(status int) {
	if m.responses == nil {
		return
	}
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Registry returns the underlying registry, or nil for Nop metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric in the text exposition format to path.
// It is a no-op for Nop metrics or an empty path.
func (m *Metrics) WriteTextfile(path string) error {
	if m.registry == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
