package csvstream

import "bytes"

// =============================================================================
// Quote State Machine
// =============================================================================
//
// Row segmentation and cell splitting share one scanner so they never
// disagree about what is quoted:
//
//   UNQUOTED          ---(quote)-->   QUOTED
//   QUOTED            ---(quote)-->   QUOTE_IN_QUOTED
//   QUOTED            ---(escape)-->  ESCAPE_IN_QUOTED   (escape != quote only)
//   QUOTE_IN_QUOTED   ---(quote)-->   QUOTED             (doubled quote, literal)
//   QUOTE_IN_QUOTED   ---(other)-->   UNQUOTED, then other is re-read there
//   ESCAPE_IN_QUOTED  ---(quote)-->   QUOTED             (escaped quote, literal)
//   ESCAPE_IN_QUOTED  ---(other)-->   QUOTED, then other is re-read there
//
// The two pending states replace a one-byte lookahead. A quote that ends a
// chunk stays pending until the next byte arrives, so a doubled quote split
// across chunks is still recognised.
//
// =============================================================================

// scanState is the position of the scanner relative to quoted regions.
type scanState uint8

const (
	stateUnquoted scanState = iota
	stateQuoted
	stateQuoteInQuoted
	stateEscapeInQuoted
)

// quoting holds the bytes that drive the scanner.
type quoting struct {
	quote  byte
	escape byte
}

// advance feeds b through the state machine. It returns the next state and
// whether b lies outside any quoted region, which is when b may act as a
// separator or terminator.
func (q quoting) advance(s scanState, b byte) (scanState, bool) {
	switch s {
	case stateUnquoted:
		if b == q.quote {
			return stateQuoted, false
		}
		return stateUnquoted, true
	case stateQuoted:
		if b == q.quote {
			return stateQuoteInQuoted, false
		}
		if b == q.escape {
			return stateEscapeInQuoted, false
		}
		return stateQuoted, false
	case stateQuoteInQuoted:
		if b == q.quote {
			return stateQuoted, false
		}
		// The previous quote closed the region.
		return q.advance(stateUnquoted, b)
	default: // stateEscapeInQuoted
		if b == q.quote {
			return stateQuoted, false
		}
		return q.advance(stateQuoted, b)
	}
}

// indexUnquoted returns the index of the first delim in data that lies
// outside quotes, or -1. Scanning starts in *s, and *s is left in the state
// after the returned byte, or after all of data when -1 is returned.
func (q quoting) indexUnquoted(data []byte, delim byte, s *scanState) int {
	i := 0
	for i < len(data) {
		// Skip runs that cannot change state.
		switch *s {
		case stateUnquoted:
			j := indexEither(data[i:], q.quote, delim)
			if j < 0 {
				return -1
			}
			i += j
		case stateQuoted:
			j := indexEither(data[i:], q.quote, q.escape)
			if j < 0 {
				return -1
			}
			i += j
		}

		var outside bool
		*s, outside = q.advance(*s, data[i])
		if outside && data[i] == delim {
			return i
		}
		i++
	}
	return -1
}

// indexEither returns the index of the first a or b in data, or -1.
func indexEither(data []byte, a, b byte) int {
	i := bytes.IndexByte(data, a)
	if a == b {
		return i
	}
	limit := data
	if i >= 0 {
		limit = data[:i]
	}
	if j := bytes.IndexByte(limit, b); j >= 0 {
		return j
	}
	return i
}

// =============================================================================
// Quoted Cell Helpers
// =============================================================================

// isWrapped reports whether cell starts and ends with the quote byte.
func (q quoting) isWrapped(cell []byte) bool {
	return len(cell) >= 2 && cell[0] == q.quote && cell[len(cell)-1] == q.quote
}

// appendUnwrapped appends the content of a wrapped cell to dst, removing the
// outer quotes and collapsing doubled or escaped quotes.
func (q quoting) appendUnwrapped(dst, cell []byte) []byte {
	inner := cell[1 : len(cell)-1]
	for i := 0; i < len(inner); i++ {
		b := inner[i]
		if (b == q.quote || b == q.escape) && i+1 < len(inner) && inner[i+1] == q.quote {
			dst = append(dst, q.quote)
			i++ // Skip the quote that was escaped
			continue
		}
		dst = append(dst, b)
	}
	return dst
}
