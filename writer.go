package csvstream

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Writer writes records using CSV encoding.
//
// As returned by NewWriter, a Writer writes records terminated by a
// newline and uses ',' as the field delimiter and '"' as the quote. The
// exported fields can be changed to customize the details before the first
// call to Write or WriteAll.
//
// Fields are quoted when they contain the delimiter, the quote, \r or \n,
// or start with a space or tab. A quote inside a quoted field is doubled,
// which is the form a [Parser] with default Options reads back. A record
// holding one empty field is written as "" so that it is not a blank line.
//
// If UseCRLF is true, the Writer ends each output line with \r\n instead of \n.
//
// The writes of individual records are buffered.
// After all data has been written, the client should call the
// Flush method to guarantee all data has been forwarded to
// the underlying io.Writer. Any errors that occurred should
// be checked by calling the Error method.
type Writer struct {
	Comma   byte // Field delimiter (set to ',' by NewWriter)
	Quote   byte // Quote byte (set to '"' by NewWriter)
	UseCRLF bool // True to use \r\n as the line terminator

	w   *bufio.Writer
	err error
}

var errInvalidWriterDelim = errors.New("csvstream: invalid writer delimiter or quote")

// NewWriter returns a new Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		Comma: ',',
		Quote: '"',
		w:     bufio.NewWriter(w),
	}
}

// Write writes a single CSV record to w along with any necessary quoting.
// A record is a slice of strings with each string being one field.
// Writes are buffered, so Flush must eventually be called to ensure
// that the record is written to the underlying io.Writer.
func (w *Writer) Write(record []string) error {
	if w.err != nil {
		return w.err
	}
	if !w.validDelims() {
		w.err = errInvalidWriterDelim
		return w.err
	}

	// A lone empty field would be a blank line, which readers skip.
	if len(record) == 1 && record[0] == "" {
		if w.err = w.writeQuotedField(""); w.err != nil {
			return w.err
		}
		return w.writeLineEnding()
	}

	for i, field := range record {
		if i > 0 {
			if w.err = w.w.WriteByte(w.Comma); w.err != nil {
				return w.err
			}
		}
		w.err = w.writeField(field)
		if w.err != nil {
			return w.err
		}
	}

	return w.writeLineEnding()
}

// WriteRow writes the values of row.
func (w *Writer) WriteRow(row Row) error {
	return w.Write(row.Values)
}

// writeField writes a single field, quoting if necessary.
func (w *Writer) writeField(field string) error {
	if w.fieldNeedsQuotes(field) {
		return w.writeQuotedField(field)
	}
	_, err := w.w.WriteString(field)
	return err
}

// writeLineEnding writes the appropriate line ending.
func (w *Writer) writeLineEnding() error {
	if w.UseCRLF {
		_, w.err = w.w.WriteString("\r\n")
	} else {
		w.err = w.w.WriteByte('\n')
	}
	return w.err
}

// WriteAll writes multiple CSV records to w using Write and then calls Flush,
// returning any error from the Flush.
func (w *Writer) WriteAll(records [][]string) error {
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes any buffered data to the underlying io.Writer.
// To check if an error occurred during Flush, call Error.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

// Error reports any error that has occurred during a previous Write or Flush.
func (w *Writer) Error() error {
	return w.err
}

func (w *Writer) validDelims() bool {
	c, q := w.Comma, w.Quote
	return c != q && c != '\r' && c != '\n' && q != '\r' && q != '\n' && q != 0
}

// fieldNeedsQuotes reports whether field needs to be quoted.
func (w *Writer) fieldNeedsQuotes(field string) bool {
	if len(field) == 0 {
		return false
	}
	if field[0] == ' ' || field[0] == '\t' {
		return true
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case w.Comma, w.Quote, '\n', '\r':
			return true
		}
	}
	return false
}

// writeQuotedField writes field between quotes, doubling inner quotes.
func (w *Writer) writeQuotedField(field string) error {
	if err := w.w.WriteByte(w.Quote); err != nil {
		return err
	}
	for {
		i := strings.IndexByte(field, w.Quote)
		if i < 0 {
			break
		}
		if _, err := w.w.WriteString(field[:i+1]); err != nil {
			return err
		}
		if err := w.w.WriteByte(w.Quote); err != nil {
			return err
		}
		field = field[i+1:]
	}
	if _, err := w.w.WriteString(field); err != nil {
		return err
	}
	return w.w.WriteByte(w.Quote)
}
