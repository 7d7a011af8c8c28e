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

package testutil

import (
	"fmt"
	"html"
	"strings"
)

// RecordBuilder provides a fluent API for creating gzd recordData payloads
type RecordBuilder struct {
	identifier string
	title      string
	docType    string
	creator    string
	date       string
	body       string
	position   int
}

// NewRecordBuilder creates a new record builder with defaults for the
// record at the given 0-based position
func NewRecordBuilder(position int) *RecordBuilder {
	return &RecordBuilder{
		identifier: fmt.Sprintf("kst-%06d", position+1),
		title:      fmt.Sprintf("Kamerstuk %d", position+1),
		docType:    "Kamerstuk",
		creator:    "Tweede Kamer der Staten-Generaal",
		date:       "2024-01-15",
		body:       fmt.Sprintf("Tekst van kamerstuk %d", position+1),
		position:   position,
	}
}

// WithIdentifier overrides the record identifier
func (b *RecordBuilder) WithIdentifier(id string) *RecordBuilder {
	b.identifier = id
	return b
}

// WithTitle overrides the record title
func (b *RecordBuilder) WithTitle(title string) *RecordBuilder {
	b.title = title
	return b
}

// WithBody overrides the enriched text body
func (b *RecordBuilder) WithBody(body string) *RecordBuilder {
	b.body = body
	return b
}

// Build renders the <record> element including its recordData
func (b *RecordBuilder) Build() string {
	e := html.EscapeString
	var sb strings.Builder
	sb.WriteString("<sru:record>")
	sb.WriteString("<sru:recordSchema>http://standaarden.overheid.nl/sru/</sru:recordSchema>")
	sb.WriteString("<sru:recordPacking>xml</sru:recordPacking>")
	sb.WriteString("<sru:recordData>")
	sb.WriteString(`<gzd:gzd xmlns:gzd="http://standaarden.overheid.nl/sru/gzd" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:overheidwetgeving="http://standaarden.overheid.nl/wetgeving/">`)
	sb.WriteString("<gzd:originalData><overheidwetgeving:meta><overheidwetgeving:owmskern>")
	fmt.Fprintf(&sb, "<dcterms:identifier>%s</dcterms:identifier>", e(b.identifier))
	fmt.Fprintf(&sb, "<dcterms:title>%s</dcterms:title>", e(b.title))
	fmt.Fprintf(&sb, "<dcterms:type>%s</dcterms:type>", e(b.docType))
	fmt.Fprintf(&sb, "<dcterms:creator>%s</dcterms:creator>", e(b.creator))
	sb.WriteString("</overheidwetgeving:owmskern><overheidwetgeving:owmsmantel>")
	fmt.Fprintf(&sb, "<dcterms:available>%s</dcterms:available>", e(b.date))
	sb.WriteString("</overheidwetgeving:owmsmantel></overheidwetgeving:meta></gzd:originalData>")
	fmt.Fprintf(&sb, "<gzd:enrichedData><gzd:itemText>%s</gzd:itemText></gzd:enrichedData>", e(b.body))
	sb.WriteString("</gzd:gzd>")
	sb.WriteString("</sru:recordData>")
	fmt.Fprintf(&sb, "<sru:recordPosition>%d</sru:recordPosition>", b.position+1)
	sb.WriteString("</sru:record>")
	return sb.String()
}

// ResponseBuilder assembles a searchRetrieveResponse document
type ResponseBuilder struct {
	total      *int
	records    []string
	next       int
	diagnostic string
}

// NewResponseBuilder creates a new response builder
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{}
}

// WithTotal sets numberOfRecords
func (b *ResponseBuilder) WithTotal(total int) *ResponseBuilder {
	b.total = &total
	return b
}

// WithRecords appends rendered <record> elements
func (b *ResponseBuilder) WithRecords(records ...string) *ResponseBuilder {
	b.records = append(b.records, records...)
	return b
}

// WithNextPosition sets the 1-based nextRecordPosition. Zero omits it.
func (b *ResponseBuilder) WithNextPosition(next int) *ResponseBuilder {
	b.next = next
	return b
}

// WithDiagnostic adds an SRU diagnostic with the given message
func (b *ResponseBuilder) WithDiagnostic(message string) *ResponseBuilder {
	b.diagnostic = message
	return b
}

// Build renders the response document
func (b *ResponseBuilder) Build() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<sru:searchRetrieveResponse xmlns:sru="http://docs.oasis-open.org/ns/search-ws/sruResponse">`)
	sb.WriteString("<sru:version>2.0</sru:version>")
	if b.total != nil {
		fmt.Fprintf(&sb, "<sru:numberOfRecords>%d</sru:numberOfRecords>", *b.total)
	}
	if len(b.records) > 0 {
		sb.WriteString("<sru:records>")
		for _, r := range b.records {
			sb.WriteString(r)
		}
		sb.WriteString("</sru:records>")
	}
	if b.next > 0 {
		fmt.Fprintf(&sb, "<sru:nextRecordPosition>%d</sru:nextRecordPosition>", b.next)
	}
	if b.diagnostic != "" {
		sb.WriteString(`<sru:diagnostics><diag:diagnostic xmlns:diag="http://docs.oasis-open.org/ns/search-ws/diagnostic">`)
		sb.WriteString("<diag:uri>info:srw/diagnostic/1/10</diag:uri>")
		sb.WriteString("<diag:details>query</diag:details>")
		fmt.Fprintf(&sb, "<diag:message>%s</diag:message>", html.EscapeString(b.diagnostic))
		sb.WriteString("</diag:diagnostic></sru:diagnostics>")
	}
	sb.WriteString("</sru:searchRetrieveResponse>")
	return sb.String()
}

// GenerateSRUResponse renders the page of a result set with total records
// that starts at the 1-based startRecord and holds at most maximumRecords.
func GenerateSRUResponse(startRecord, maximumRecords, total int) string {
	b := NewResponseBuilder().WithTotal(total)
	first := startRecord - 1
	if first < 0 {
		first = 0
	}
	end := first + maximumRecords
	if end > total {
		end = total
	}
	for pos := first; pos < end; pos++ {
		b.WithRecords(NewRecordBuilder(pos).Build())
	}
	if end < total {
		b.WithNextPosition(end + 1)
	}
	return b.Build()
}
