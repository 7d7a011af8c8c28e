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

package output

import (
	"io"
	"strings"
	"testing"

	"github.com/sirseerhq/sirseer-sru/internal/sru"
)

// createSampleRecord creates a realistic record for benchmarking
func createSampleRecord(pos int) sru.Record {
	return sru.Record{
		Identifier: "kst-36200-VII-12",
		Content:    strings.Repeat("Vaststelling van de begrotingsstaten van het Ministerie van Binnenlandse Zaken en Koninkrijksrelaties voor het jaar 2024. ", 20),
		Source:     "Officiële Publicaties",
		Title:      "Vaststelling van de begrotingsstaten van het Ministerie van Binnenlandse Zaken en Koninkrijksrelaties (VII) voor het jaar 2024",
		Type:       "Kamerstuk",
		Date:       "2024-01-15",
		Creator:    "Tweede Kamer der Staten-Generaal",
		Position:   pos,
	}
}

// BenchmarkWriter_Append benchmarks writing single records
func BenchmarkWriter_Append(b *testing.B) {
	w := NewWriter(io.Discard)
	rec := createSampleRecord(1)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := w.Append(rec); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFileWriter_Page benchmarks appending and flushing a full page
func BenchmarkFileWriter_Page(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		w, err := NewFileWriter(b.TempDir() + "/bench.ndjson")
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()

		for j := 0; j < 1000; j++ {
			if err := w.Append(createSampleRecord(j)); err != nil {
				b.Fatal(err)
			}
		}
		if err := w.Flush(); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		w.Close()
		b.StartTimer()
	}
}

// BenchmarkShardWriter_Page benchmarks a full page through each shard codec
func BenchmarkShardWriter_Page(b *testing.B) {
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		b.Run(string(c), func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				b.StopTimer()
				w, err := NewShardWriter(b.TempDir(), DefaultShardSize, c)
				if err != nil {
					b.Fatal(err)
				}
				b.StartTimer()

				for j := 0; j < 1000; j++ {
					if err := w.Append(createSampleRecord(j)); err != nil {
						b.Fatal(err)
					}
				}
				if err := w.Flush(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
