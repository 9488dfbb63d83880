package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nnnkkk7/go-csvstream"
)

// rowWriter renders rows in one output format.
type rowWriter interface {
	WriteRow(row csvstream.Row) error
	Flush() error
}

// newRowWriter returns the writer for format.
func newRowWriter(format string, w io.Writer, separator byte) (rowWriter, error) {
	switch format {
	case "json":
		return &jsonWriter{w: bufio.NewWriter(w)}, nil
	case "values":
		return &jsonWriter{w: bufio.NewWriter(w), valuesOnly: true}, nil
	case "csv":
		cw := csvstream.NewWriter(w)
		cw.Comma = separator
		return cw, nil
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

// jsonWriter writes one JSON value per line: an object in label order, or an
// array of values.
type jsonWriter struct {
	w          *bufio.Writer
	valuesOnly bool
	buf        bytes.Buffer
}

func (j *jsonWriter) WriteRow(row csvstream.Row) error {
	j.buf.Reset()
	if j.valuesOnly {
		data, err := json.Marshal(row.Values)
		if err != nil {
			return err
		}
		j.buf.Write(data)
	} else if err := appendObject(&j.buf, row.Fields()); err != nil {
		return err
	}
	j.buf.WriteByte('\n')
	_, err := j.w.Write(j.buf.Bytes())
	return err
}

func (j *jsonWriter) Flush() error {
	return j.w.Flush()
}

// appendObject encodes fields as a JSON object, keeping their order.
func appendObject(buf *bytes.Buffer, fields []csvstream.Field) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Label)
		if err != nil {
			return err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return nil
}
