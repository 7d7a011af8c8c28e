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

package sru

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
	"github.com/sirseerhq/sirseer-sru/internal/fetcherror"
	"github.com/sirseerhq/sirseer-sru/pkg/version"
)

// ClientConfig configures an HTTPClient.
type ClientConfig struct {
	// Endpoint is the SRU base URL, e.g. https://zoek.officielebekendmakingen.nl/sru/Search
	Endpoint string

	// Query is the CQL query sent with every request.
	Query string

	// RecordSchema selects the record representation. Defaults to "gzd".
	RecordSchema string

	// SourceName is copied into every record's Source column.
	SourceName string

	// Timeout bounds a single HTTP request. Defaults to 60s.
	Timeout time.Duration

	// Logger receives per-request debug output.
	Logger zerolog.Logger

	// OnResponse, if set, is called after every HTTP response with its status
	// code and round-trip duration.
	OnResponse func(status int, elapsed time.Duration)
}

// HTTPClient implements Client against a live SRU endpoint.
// It issues plain GET requests and decodes the XML response into records.
type HTTPClient struct {
	http   *resty.Client
	config ClientConfig
	logger zerolog.Logger
}

// NewHTTPClient creates a new SRU client. The client is configured with:
//   - A per-request timeout (default 60s)
//   - A User-Agent header identifying the crawler version
//   - An XML Accept header
//   - A response hook feeding request metrics
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	if cfg.RecordSchema == "" {
		cfg.RecordSchema = defaultRecordSchema
	}
	if cfg.SourceName == "" {
		cfg.SourceName = defaultSourceName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", fmt.Sprintf("sirseer-sru/%s", version.Version))
	client.SetHeader("Accept", "application/xml, text/xml")

	c := &HTTPClient{
		http:   client,
		config: cfg,
		logger: cfg.Logger.With().Str("component", "sru").Logger(),
	}
	client.OnAfterResponse(c.onAfterResponse)
	return c
}

// FetchPage implements Client. A non-200 status is returned as a
// *fetcherror.StatusError; an undecodable body wraps ErrMalformedPage.
func (c *HTTPClient) FetchPage(ctx context.Context, opts FetchOptions) (*Page, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if opts.Start < 0 {
		return nil, fmt.Errorf("negative start position %d", opts.Start)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(c.queryParams(opts.Start, pageSize)).
		Get(c.config.Endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request startRecord=%d: %w", opts.Start+1, ctxErr)
		}
		return nil, fmt.Errorf("request startRecord=%d: %w", opts.Start+1, errors.Join(err, sruerrors.ErrNetworkFailure))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &fetcherror.StatusError{StatusCode: resp.StatusCode(), URL: c.config.Endpoint}
	}

	page, err := ParseResponse(resp.Body(), opts.Start, c.config.SourceName)
	if err != nil {
		return nil, fmt.Errorf("startRecord=%d: %w", opts.Start+1, err)
	}
	return page, nil
}

// queryParams builds the searchRetrieve parameters. SRU positions are 1-based.
func (c *HTTPClient) queryParams(start, pageSize int) map[string]string {
	return map[string]string{
		"version":        sruVersion,
		"operation":      "searchRetrieve",
		"query":          c.config.Query,
		"startRecord":    strconv.Itoa(start + 1),
		"maximumRecords": strconv.Itoa(pageSize),
		"recordSchema":   c.config.RecordSchema,
	}
}

func (c *HTTPClient) onAfterResponse(_ *resty.Client, resp *resty.Response) error {
	c.logger.Debug().
		Int("status", resp.StatusCode()).
		Dur("elapsed", resp.Time()).
		Int("bytes", len(resp.Body())).
		Str("url", resp.Request.URL).
		Msg("sru response")
	if c.config.OnResponse != nil {
		c.config.OnResponse(resp.StatusCode(), resp.Time())
	}
	return nil
}
