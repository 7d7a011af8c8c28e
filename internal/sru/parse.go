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
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	sruerrors "github.com/sirseerhq/sirseer-sru/internal/errors"
)

// searchRetrieveResponse mirrors the parts of the SRU response the crawler
// uses. Element names carry no namespace so both SRU 1.2 and 2.0 envelopes
// decode.
type searchRetrieveResponse struct {
	XMLName            xml.Name        `xml:"searchRetrieveResponse"`
	NumberOfRecords    string          `xml:"numberOfRecords"`
	Records            []sruRecord     `xml:"records>record"`
	NextRecordPosition string          `xml:"nextRecordPosition"`
	Diagnostics        []sruDiagnostic `xml:"diagnostics>diagnostic"`
}

type sruRecord struct {
	RecordData struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"recordData"`
	RecordPosition string `xml:"recordPosition"`
}

type sruDiagnostic struct {
	URI     string `xml:"uri"`
	Details string `xml:"details"`
	Message string `xml:"message"`
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// metadataFields lists the element local names copied into Record metadata.
// The first non-empty occurrence wins.
var metadataFields = map[string]bool{
	"identifier": true,
	"title":      true,
	"type":       true,
	"creator":    true,
	"date":       true,
	"issued":     true,
	"available":  true,
	"modified":   true,
}

// ParseResponse decodes an SRU searchRetrieve response body. start is the
// 0-based offset that was requested; it positions records that carry no
// recordPosition of their own.
func ParseResponse(body []byte, start int, sourceName string) (*Page, error) {
	var resp searchRetrieveResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode searchRetrieveResponse: %w", errors.Join(err, sruerrors.ErrMalformedPage))
	}

	if len(resp.Diagnostics) > 0 {
		d := resp.Diagnostics[0]
		return nil, fmt.Errorf("%s (%s %s): %w",
			strings.TrimSpace(d.Message), strings.TrimSpace(d.URI), strings.TrimSpace(d.Details),
			sruerrors.ErrQueryRejected)
	}

	page := &Page{Records: make([]Record, 0, len(resp.Records))}

	if n := strings.TrimSpace(resp.NumberOfRecords); n != "" {
		total, err := strconv.Atoi(n)
		if err != nil || total < 0 {
			return nil, fmt.Errorf("numberOfRecords %q: %w", n, sruerrors.ErrMalformedPage)
		}
		page.Total = &total
	}

	if n := strings.TrimSpace(resp.NextRecordPosition); n != "" {
		next, err := strconv.Atoi(n)
		if err != nil || next < 1 {
			return nil, fmt.Errorf("nextRecordPosition %q: %w", n, sruerrors.ErrMalformedPage)
		}
		// SRU positions are 1-based
		next--
		page.NextPosition = &next
	}

	for i, raw := range resp.Records {
		rec, err := extractRecord(raw.RecordData.Inner)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", start+i, errors.Join(err, sruerrors.ErrMalformedPage))
		}
		rec.Source = sourceName
		rec.Position = start + i
		if p := strings.TrimSpace(raw.RecordPosition); p != "" {
			if pos, err := strconv.Atoi(p); err == nil && pos >= 1 {
				rec.Position = pos - 1
			}
		}
		page.Records = append(page.Records, rec)
	}

	return page, nil
}

// openElement is an element of recordData that has started but not ended.
// text is non-nil for metadata fields and gathers all character data
// inside the field, nested inline markup included.
type openElement struct {
	name string
	text *strings.Builder
}

// extractRecord walks the recordData payload, collecting its full text
// content and the first occurrence of each metadata element.
func extractRecord(data []byte) (Record, error) {
	var (
		rec     Record
		content strings.Builder
		fields  = make(map[string]string)
		stack   []openElement
	)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Record{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := openElement{name: t.Name.Local}
			if metadataFields[el.name] {
				el.text = &strings.Builder{}
			}
			stack = append(stack, el)
		case xml.CharData:
			content.Write(t)
			content.WriteByte(' ')
			for _, el := range stack {
				if el.text != nil {
					el.text.Write(t)
				}
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if el.text != nil && fields[el.name] == "" {
				fields[el.name] = cleanText(el.text.String())
			}
		}
	}

	rec.Identifier = fields["identifier"]
	rec.Content = cleanText(content.String())
	rec.Title = fields["title"]
	rec.Type = fields["type"]
	rec.Creator = fields["creator"]
	rec.Date = firstNonEmpty(fields["date"], fields["issued"], fields["available"], fields["modified"])
	return rec, nil
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
