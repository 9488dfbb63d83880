package csvstream

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
)

// =============================================================================
// Test Helper Functions
// =============================================================================

// readerOptions holds optional settings for stdlib comparison.
type readerOptions struct {
	comma   byte
	comment byte
}

// compareWithStdlib compares csvstream output with encoding/csv output for
// well-formed input, both in one piece and fed in small chunks.
func compareWithStdlib(t *testing.T, input string, opts *readerOptions) {
	t.Helper()

	stdReader := csv.NewReader(strings.NewReader(input))
	stdReader.FieldsPerRecord = -1
	parseOpts := Options{HeaderMode: HeaderNone}
	if opts != nil {
		if opts.comma != 0 {
			stdReader.Comma = rune(opts.comma)
			parseOpts.Separator = opts.comma
		}
		if opts.comment != 0 {
			stdReader.Comment = rune(opts.comment)
			parseOpts.Comment = opts.comment
		}
	}

	want, err := stdReader.ReadAll()
	if err != nil {
		t.Fatalf("encoding/csv ReadAll error: %v", err)
	}

	rows, err := ParseBytes([]byte(input), parseOpts)
	if err != nil {
		t.Fatalf("ParseBytes error: %v", err)
	}
	if got := values(rows); !equalRecords(got, want) {
		t.Errorf("record mismatch:\nencoding/csv=%q\ncsvstream=%q", want, got)
	}

	for _, size := range []int{1, 2, 3, 7} {
		got := parseInChunks(t, parseOpts, []byte(input), size)
		if !equalRecords(got, want) {
			t.Errorf("chunk size %d: record mismatch:\nencoding/csv=%q\ncsvstream=%q", size, want, got)
		}
	}
}

// compareWriterWithStdlib compares csvstream Writer output with encoding/csv Writer output.
func compareWriterWithStdlib(t *testing.T, records [][]string, useCRLF bool) {
	t.Helper()

	var stdBuf bytes.Buffer
	stdWriter := csv.NewWriter(&stdBuf)
	stdWriter.UseCRLF = useCRLF
	if err := stdWriter.WriteAll(records); err != nil {
		t.Fatalf("encoding/csv WriteAll error: %v", err)
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.UseCRLF = useCRLF
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("csvstream WriteAll error: %v", err)
	}

	if stdBuf.String() != buf.String() {
		t.Errorf("output mismatch:\nencoding/csv=%q\ncsvstream=%q", stdBuf.String(), buf.String())
	}
}

// newTestParser creates a Parser or fails the test.
func newTestParser(t testing.TB, opts Options) *Parser {
	t.Helper()
	p, err := NewParser(opts)
	if err != nil {
		t.Fatalf("NewParser(%+v) error: %v", opts, err)
	}
	return p
}

// parseInChunks feeds data in pieces of size bytes and returns the values of
// every row. Any error fails the test.
func parseInChunks(t testing.TB, opts Options, data []byte, size int) [][]string {
	t.Helper()
	p := newTestParser(t, opts)
	var got [][]string
	for len(data) > 0 {
		n := min(size, len(data))
		rows, err := p.Ingest(data[:n])
		if err != nil {
			t.Fatalf("Ingest error: %v", err)
		}
		got = append(got, values(rows)...)
		data = data[n:]
	}
	rows, err := p.Finish()
	if err != nil {
		t.Fatalf("Finish error: %v", err)
	}
	return append(got, values(rows)...)
}

// values returns the cell values of rows.
func values(rows []Row) [][]string {
	var out [][]string
	for _, r := range rows {
		out = append(out, r.Values)
	}
	return out
}

// equalRecords compares records, treating nil and empty as equal.
func equalRecords(a, b [][]string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// =============================================================================
// Benchmark Data Generators
// =============================================================================

// generateSimpleCSV generates CSV data with simple unquoted fields.
func generateSimpleCSV(numRows, numCols int) []byte {
	var buf bytes.Buffer
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString("field")
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// generateQuotedCSV generates CSV data with quoted fields containing commas.
func generateQuotedCSV(numRows, numCols int) []byte {
	var buf bytes.Buffer
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`"field,with,commas"`)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// generateMixedCSV generates CSV data with mixed quoted/unquoted fields.
func generateMixedCSV(numRows, numCols int) []byte {
	var buf bytes.Buffer
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if j > 0 {
				buf.WriteByte(',')
			}
			if j%2 == 0 {
				buf.WriteString("simple")
			} else {
				buf.WriteString(`"quoted,field"`)
			}
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// generateEscapedQuotesCSV generates CSV data with escaped double quotes.
func generateEscapedQuotesCSV(numRows, numCols int) []byte {
	var buf bytes.Buffer
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(`"he said ""hello"" to me"`)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// encodeUTF16 encodes s as UTF-16 code units in the given byte order,
// optionally preceded by a byte-order mark.
func encodeUTF16(s string, bigEndian, bom bool) []byte {
	var out []byte
	put := func(u uint16) {
		if bigEndian {
			out = append(out, byte(u>>8), byte(u))
		} else {
			out = append(out, byte(u), byte(u>>8))
		}
	}
	if bom {
		put(0xFEFF)
	}
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			put(uint16(0xD800 + (r >> 10)))
			put(uint16(0xDC00 + (r & 0x3FF)))
			continue
		}
		put(uint16(r))
	}
	return out
}
