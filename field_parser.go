package csvstream

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// =============================================================================
// Cell Tokenizer
// =============================================================================
//
// A row arrives with its terminator and trailing '\r' already trimmed. It is
// split on separators that lie outside quotes, using the same scanner as the
// segmenter. Each cell is then decoded:
//
//   "a ""b"" c"   wrapped: outer quotes removed, doubled quotes collapsed
//   a "b" c       not wrapped: taken literally
//
// Cell contents are accumulated into one buffer and converted to a string
// once per row; the returned cells are slices of that string.
//
// =============================================================================

// fieldParser turns row bytes into cell strings.
type fieldParser struct {
	q         quoting
	separator byte
	raw       bool
	repair    *encoding.Decoder // replaces invalid UTF-8, raw mode only

	recordBuf []byte
	fieldEnds []int
}

// newFieldParser creates a fieldParser for c.
func newFieldParser(c *config) *fieldParser {
	f := &fieldParser{
		q:         c.quoting(),
		separator: c.separator,
		raw:       c.raw,
	}
	if c.raw {
		f.repair = unicode.UTF8.NewDecoder()
	}
	return f
}

// parseRecord splits row into cells. A trailing separator yields a final
// empty cell.
func (f *fieldParser) parseRecord(row []byte) ([]string, error) {
	f.recordBuf = f.recordBuf[:0]
	f.fieldEnds = f.fieldEnds[:0]

	state := stateUnquoted
	for {
		i := f.q.indexUnquoted(row, f.separator, &state)
		cell := row
		if i >= 0 {
			cell = row[:i]
		}
		if err := f.appendField(cell); err != nil {
			return nil, err
		}
		f.fieldEnds = append(f.fieldEnds, len(f.recordBuf))
		if i < 0 {
			break
		}
		row = row[i+1:]
	}

	return sliceFields(string(f.recordBuf), f.fieldEnds), nil
}

// appendField decodes one cell onto recordBuf.
func (f *fieldParser) appendField(cell []byte) error {
	start := len(f.recordBuf)
	if f.q.isWrapped(cell) {
		f.recordBuf = f.q.appendUnwrapped(f.recordBuf, cell)
	} else {
		f.recordBuf = append(f.recordBuf, cell...)
	}

	content := f.recordBuf[start:]
	if utf8.Valid(content) {
		return nil
	}
	if !f.raw {
		return fmt.Errorf("%w: cell %d", ErrInvalidUTF8, len(f.fieldEnds))
	}
	fixed, err := f.repair.Bytes(content)
	if err != nil {
		return fmt.Errorf("%w: cell %d: %v", ErrInvalidUTF8, len(f.fieldEnds), err)
	}
	f.recordBuf = append(f.recordBuf[:start], fixed...)
	return nil
}

// sliceFields cuts str at fieldEnds.
func sliceFields(str string, fieldEnds []int) []string {
	record := make([]string, len(fieldEnds))
	prevEnd := 0
	for i, end := range fieldEnds {
		record[i] = str[prevEnd:end]
		prevEnd = end
	}
	return record
}

// =============================================================================
// Row Trimming
// =============================================================================

// trimTerminator removes a trailing newline byte and then a trailing '\r'.
func trimTerminator(row []byte, newline byte) []byte {
	if n := len(row); n > 0 && row[n-1] == newline {
		row = row[:n-1]
	}
	if n := len(row); n > 0 && row[n-1] == '\r' {
		row = row[:n-1]
	}
	return row
}

// firstNonBlank returns the first byte of row that is not a space or tab,
// and false if there is none.
func firstNonBlank(row []byte) (byte, bool) {
	for _, b := range row {
		if b != ' ' && b != '\t' {
			return b, true
		}
	}
	return 0, false
}
