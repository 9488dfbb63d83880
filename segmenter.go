package csvstream

import "fmt"

// =============================================================================
// Row Segmenter
// =============================================================================
//
// The carry buffer holds canonical UTF-8 that has not become a row yet.
// Each call scans only the bytes appended since the previous call: the
// scanner state at the end of the scanned prefix is kept, so a row that
// spans many chunks is scanned once.
//
//   buf:  [ row | row | partial row ... ]
//                      ^start      ^scanned
//
// Complete rows are cut at terminators outside quotes and handed to
// parseRow. Consumed bytes are then compacted away.
//
// =============================================================================

// segment emits every complete row in the carry buffer. With final set the
// remaining bytes are parsed as one last row.
func (p *Parser) segment(final bool) ([]Row, error) {
	s := &p.state
	var rows []Row

	start := 0
	for {
		i := p.q.indexUnquoted(s.buf[s.scanned:], p.cfg.newline, &s.scan)
		if i < 0 {
			s.scanned = len(s.buf)
			break
		}
		end := s.scanned + i + 1
		s.scanned = end
		raw := s.buf[start:end]
		start = end

		if s.discarding {
			s.discarding = false
			log.Debugf("line %d: skipped %d trailing bytes of oversized row", s.lineNumber, len(raw))
			continue
		}

		row, ok, err := p.parseRow(raw)
		if err != nil {
			p.compact(start)
			return p.fail(rows, err)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	p.compact(start)

	if final {
		return p.flush(rows)
	}
	if s.discarding {
		s.buf = s.buf[:0]
		s.scanned = 0
		return rows, nil
	}
	if err := p.checkPartial(); err != nil {
		return p.fail(rows, err)
	}
	return rows, nil
}

// flush parses the unterminated tail and resets the carry buffer.
func (p *Parser) flush(rows []Row) ([]Row, error) {
	s := &p.state
	tail := s.buf
	discarding := s.discarding

	s.buf = s.buf[:0]
	s.scanned = 0
	s.scan = stateUnquoted
	s.discarding = false

	if len(tail) == 0 || discarding {
		return rows, nil
	}
	row, ok, err := p.parseRow(tail)
	if err != nil {
		return p.fail(rows, err)
	}
	if ok {
		rows = append(rows, row)
	}
	return rows, nil
}

// checkPartial fails a partial row that is already longer than MaxRowBytes
// and starts discarding the rest of it.
func (p *Parser) checkPartial() error {
	s := &p.state
	limit := p.cfg.maxRowBytes
	if limit == 0 || len(s.buf) <= limit {
		return nil
	}

	s.lineNumber++
	size := len(s.buf)
	s.buf = s.buf[:0]
	s.scanned = 0
	s.discarding = true
	log.Debugf("line %d: discarding oversized partial row", s.lineNumber)
	return rowError(s.lineNumber,
		fmt.Errorf("%w: %d bytes buffered without terminator, limit %d", ErrOversizedRow, size, limit))
}

// compact drops the first n bytes of the carry buffer.
func (p *Parser) compact(n int) {
	if n == 0 {
		return
	}
	s := &p.state
	rest := copy(s.buf, s.buf[n:])
	s.buf = s.buf[:rest]
	s.scanned -= n
}

// =============================================================================
// Row Filtering
// =============================================================================

// parseRow runs one segmented row through the size guard, the blank,
// comment and skip-lines filters, the tokenizer and the assembler. It
// reports false when the row produced no output.
func (p *Parser) parseRow(raw []byte) (Row, bool, error) {
	s := &p.state
	s.lineNumber++
	line := s.lineNumber

	if limit := p.cfg.maxRowBytes; limit > 0 && len(raw) > limit {
		return Row{}, false, rowError(line,
			fmt.Errorf("%w: %d bytes, limit %d", ErrOversizedRow, len(raw), limit))
	}

	row := trimTerminator(raw, p.cfg.newline)
	if len(row) == 0 {
		return Row{}, false, nil
	}
	if p.isComment(row) {
		return Row{}, false, nil
	}
	if s.skipped < p.cfg.skipLines {
		s.skipped++
		return Row{}, false, nil
	}

	cells, err := p.fields.parseRecord(row)
	if err != nil {
		return Row{}, false, rowError(line, err)
	}
	return p.buildRow(line, cells)
}

// isComment reports whether row starts, after blanks, with the comment byte.
func (p *Parser) isComment(row []byte) bool {
	if p.cfg.comment == 0 {
		return false
	}
	b, ok := firstNonBlank(row)
	return ok && b == p.cfg.comment
}
