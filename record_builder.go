package csvstream

import (
	"fmt"
	"slices"
	"strconv"
)

// =============================================================================
// Row
// =============================================================================

// Row is one logical record. Values holds the cells in input order; the
// labeled views pair them with the parser's headers.
type Row struct {
	Line   int      // Logical row number (1-indexed) in the input
	Values []string // Cell values in input order

	headers []string // Shared with the parser, never modified
}

// Label returns the label of cell i: the header at i, or "_i" for cells
// beyond the headers. An empty label means the column is dropped.
func (r Row) Label(i int) string {
	if i < len(r.headers) {
		return r.headers[i]
	}
	return "_" + strconv.Itoa(i)
}

// Labels returns the label of every cell, in order.
func (r Row) Labels() []string {
	labels := make([]string, len(r.Values))
	for i := range r.Values {
		labels[i] = r.Label(i)
	}
	return labels
}

// Get returns the value labeled label. When several cells share a label the
// last one wins.
func (r Row) Get(label string) (string, bool) {
	if label == "" {
		return "", false
	}
	for i := len(r.Values) - 1; i >= 0; i-- {
		if r.Label(i) == label {
			return r.Values[i], true
		}
	}
	return "", false
}

// Map returns the row as label→value. Dropped columns are omitted and
// colliding labels keep the last value.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.Values))
	for i, v := range r.Values {
		if label := r.Label(i); label != "" {
			m[label] = v
		}
	}
	return m
}

// Field is one labeled cell.
type Field struct {
	Label string
	Value string
}

// Fields returns the labeled cells in header order followed by extra cells.
// A label that occurs more than once keeps its first position and its last
// value, matching Map.
func (r Row) Fields() []Field {
	fields := make([]Field, 0, len(r.Values))
	pos := make(map[string]int, len(r.Values))
	for i, v := range r.Values {
		label := r.Label(i)
		if label == "" {
			continue
		}
		if p, ok := pos[label]; ok {
			fields[p].Value = v
			continue
		}
		pos[label] = len(fields)
		fields = append(fields, Field{Label: label, Value: v})
	}
	return fields
}

// =============================================================================
// Header/Row Assembly
// =============================================================================
//
// The assembler has two states. It waits for the first row that survives
// the blank, comment and skip-lines filters, and resolves headers on it:
//
//   auto      the row becomes the headers and is not emitted
//   explicit  headers were set at construction; the row is data
//   none      headers are "0".."n-1" for the row's n cells; the row is data
//
// From then on every row is assembled against the fixed headers.
//
// =============================================================================

// buildRow resolves headers if needed and assembles cells into a Row. It
// reports false when the row was consumed as the header row.
func (p *Parser) buildRow(line int, cells []string) (Row, bool, error) {
	if !p.state.headerResolved {
		p.state.headerResolved = true
		switch p.cfg.headerMode {
		case HeaderAuto:
			p.state.headers = p.mapHeaders(cells)
			log.Debugf("line %d: resolved %d headers", line, len(p.state.headers))
			return Row{}, false, nil
		case HeaderNone:
			p.state.headers = p.mapHeaders(numericHeaders(len(cells)))
		}
	}

	headers := p.state.headers
	if headers == nil {
		return Row{}, false, rowError(line, ErrNoHeaders)
	}
	if p.cfg.strict && len(cells) != len(headers) {
		return Row{}, false, rowError(line,
			fmt.Errorf("%w: got %d cells, want %d", ErrSchemaMismatch, len(cells), len(headers)))
	}

	row := Row{Line: line, Values: cells, headers: headers}
	if p.cfg.mapValues != nil {
		for i, v := range cells {
			cells[i] = p.cfg.mapValues(row.Label(i), i, v)
		}
	}
	return row, true, nil
}

// mapHeaders applies MapHeaders to a fresh copy of headers.
func (p *Parser) mapHeaders(headers []string) []string {
	mapped := slices.Clone(headers)
	if mapped == nil {
		mapped = []string{}
	}
	if p.cfg.mapHeaders != nil {
		for i, h := range mapped {
			mapped[i] = p.cfg.mapHeaders(h, i)
		}
	}
	return mapped
}

// numericHeaders returns "0".."n-1".
func numericHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = strconv.Itoa(i)
	}
	return headers
}
