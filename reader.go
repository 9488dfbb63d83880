package csvstream

import (
	"errors"
	"io"
)

// DefaultBufferSize is the chunk size a [Reader] reads from its source.
const DefaultBufferSize = 64 * 1024

// Reader reads rows from an [io.Reader] by feeding fixed-size chunks to a
// [Parser].
//
// BufferSize may be changed before the first call to Read or ReadAll.
type Reader struct {
	// BufferSize is the size of each read from the source. Zero means
	// DefaultBufferSize.
	BufferSize int

	src    io.Reader
	parser *Parser
	buf    []byte
	queue  []Row
	offset int64

	srcDone bool // source returned io.EOF
	done    bool // parser finished and drained
}

// NewReader returns a Reader that parses r according to opts.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	if r == nil {
		return nil, errors.New("csvstream: reader source cannot be nil")
	}
	p, err := NewParser(opts)
	if err != nil {
		return nil, err
	}
	return &Reader{src: r, parser: p}, nil
}

// Read returns the next row. At the end of input it returns io.EOF.
//
// Row and encoding errors do not end the stream: after such an error Read
// may be called again to continue with the rows that follow. Errors from
// the source are returned as they are.
func (r *Reader) Read() (Row, error) {
	for len(r.queue) == 0 {
		if r.done {
			return Row{}, io.EOF
		}
		if err := r.fill(); err != nil {
			return Row{}, err
		}
	}
	row := r.queue[0]
	r.queue = r.queue[1:]
	return row, nil
}

// ReadAll reads all the remaining rows from r.
// A successful call returns err == nil, not err == io.EOF.
// Because ReadAll is defined to read until EOF, it does not
// treat end of file as an error to be reported.
func (r *Reader) ReadAll() (rows []Row, err error) {
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

// Headers returns the resolved column labels, or nil before they are known.
func (r *Reader) Headers() []string {
	return r.parser.Headers()
}

// Charset returns the detected input encoding, or "" before it is known.
func (r *Reader) Charset() string {
	return r.parser.Charset()
}

// InputOffset returns the number of bytes read from the source so far.
func (r *Reader) InputOffset() int64 {
	return r.offset
}

// fill reads one chunk, or finishes the parser once the source is drained.
func (r *Reader) fill() error {
	if r.srcDone {
		rows, err := r.parser.Finish()
		r.queue = append(r.queue, rows...)
		if err != nil {
			return err
		}
		// A row error may have been held back behind the last rows.
		r.done = r.parser.state.pending == nil
		return nil
	}

	if r.buf == nil {
		size := r.BufferSize
		if size <= 0 {
			size = DefaultBufferSize
		}
		r.buf = make([]byte, size)
	}

	n, err := r.src.Read(r.buf)
	if err == io.EOF {
		r.srcDone = true
		err = nil
	}
	if n > 0 {
		r.offset += int64(n)
		rows, perr := r.parser.Ingest(r.buf[:n])
		r.queue = append(r.queue, rows...)
		if perr != nil {
			return perr
		}
	}
	return err
}
