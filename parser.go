// Package csvstream provides an incremental CSV tokenizer.
//
// A [Parser] is fed arbitrarily sized chunks of raw bytes, as they arrive
// from a file or network stream, and returns every row that the bytes seen
// so far complete. Partial rows, including rows that end inside a quoted
// cell, are carried over to the next call. Input may be UTF-8 or UTF-16
// (detected from a byte-order mark) or any charset named in [Options].
//
//	p, err := csvstream.NewParser(csvstream.Options{})
//	if err != nil {
//		return err
//	}
//	for chunk := range chunks {
//		rows, err := p.Ingest(chunk)
//		// handle rows, then err
//	}
//	rows, err := p.Finish()
//
// [Reader] wraps a Parser around an [io.Reader] for pull-style use.
package csvstream

import (
	"slices"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("csvstream")

// Parser is a streaming CSV tokenizer. It owns all of its buffers and must
// not be used from more than one goroutine at a time.
type Parser struct {
	cfg    config
	q      quoting
	enc    *normalizer
	fields *fieldParser
	state  parserState
}

// parserState is everything that carries over between calls.
type parserState struct {
	headers        []string
	headerResolved bool

	lineNumber int // rows segmented so far, of any kind
	skipped    int // rows dropped by SkipLines

	buf        []byte    // canonical UTF-8 not yet emitted as rows
	scanned    int       // prefix of buf already scanned
	scan       scanState // scanner state at buf[scanned]
	discarding bool      // skipping the rest of an oversized row

	pending error // reported by the next call
}

// NewParser returns a Parser configured by opts.
func NewParser(opts Options) (*Parser, error) {
	cfg := opts.resolve()
	if err := cfg.validate(opts); err != nil {
		return nil, err
	}
	cs, err := lookupCharset(cfg.charset)
	if err != nil {
		return nil, invalidOptions("%v", err)
	}

	p := &Parser{
		cfg:    cfg,
		q:      cfg.quoting(),
		enc:    newNormalizer(cs),
		fields: newFieldParser(&cfg),
	}
	if cfg.headerMode == HeaderExplicit {
		p.state.headers = p.mapHeaders(cfg.headers)
		p.state.headerResolved = true
	}
	return p, nil
}

// Ingest consumes chunk and returns the rows it completes.
//
// A row error found after other rows were produced in the same call is held
// back: those rows are returned with a nil error and the error is returned
// by the next call. A row error found before any row is returned at once.
// Either way the failing row is consumed and parsing resumes after it.
//
// When a held-back error is returned, chunk is buffered but not parsed.
// Encoding errors are returned at once and discard the undecoded input.
func (p *Parser) Ingest(chunk []byte) ([]Row, error) {
	if err := p.takePending(); err != nil {
		p.enc.hold(chunk)
		return nil, err
	}

	buf, err := p.enc.feed(p.state.buf, chunk, false)
	p.state.buf = buf
	if err != nil {
		return nil, err
	}
	return p.segment(false)
}

// Finish marks the end of input. Buffered bytes that do not end with a
// terminator are parsed as a final row, and all buffers are cleared.
// Calling Finish again returns no rows.
//
// Finish returns at most one row unless the previous call stopped at a row
// error: complete rows that followed the failing row are still buffered and
// are returned ahead of the final row.
func (p *Parser) Finish() ([]Row, error) {
	if err := p.takePending(); err != nil {
		return nil, err
	}

	buf, err := p.enc.feed(p.state.buf, nil, true)
	p.state.buf = buf
	if err != nil {
		return nil, err
	}
	return p.segment(true)
}

// Headers returns a copy of the resolved column labels, or nil while they
// are not resolved yet.
func (p *Parser) Headers() []string {
	if !p.state.headerResolved {
		return nil
	}
	return slices.Clone(p.state.headers)
}

// Charset returns the name of the detected input encoding, or "" before
// enough input has been seen.
func (p *Parser) Charset() string {
	return p.enc.charsetName()
}

// takePending returns and clears the held-back error.
func (p *Parser) takePending() error {
	err := p.state.pending
	p.state.pending = nil
	return err
}

// fail applies the deferral policy to a row error.
func (p *Parser) fail(rows []Row, err error) ([]Row, error) {
	if len(rows) == 0 {
		return nil, err
	}
	log.Debugf("deferring error after %d rows: %v", len(rows), err)
	p.state.pending = err
	return rows, nil
}
