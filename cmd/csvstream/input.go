package main

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// stdinName selects standard input.
const stdinName = "-"

// input is an opened source. Close releases every layer under it.
type input struct {
	io.Reader
	name    string
	closers []func() error
}

// Close releases the layers in reverse order of opening and returns the
// first error.
func (in *input) Close() error {
	var first error
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	in.closers = nil
	return first
}

// openInput opens path, or standard input for "-". Compressed files are
// recognised by extension; uncompressed regular files are memory-mapped.
func openInput(path string) (*input, error) {
	if path == stdinName {
		return &input{Reader: os.Stdin, name: "stdin"}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	in := &input{name: path, closers: []func() error{f.Close}}

	codec := compression(path)
	if codec == "" {
		data, unmap, err := mapFile(f)
		if err != nil {
			log.Debugf("%s: mmap unavailable, streaming: %v", path, err)
			in.Reader = f
			return in, nil
		}
		in.closers = append(in.closers, unmap)
		in.Reader = bytes.NewReader(data)
		return in, nil
	}

	r, closer, err := decompress(codec, f)
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if closer != nil {
		in.closers = append(in.closers, closer)
	}
	in.Reader = r
	log.Debugf("%s: decompressing %s", path, codec)
	return in, nil
}

// compression returns the codec implied by the file extension, or "".
func compression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return "gzip"
	case ".bz2":
		return "bzip2"
	case ".xz":
		return "xz"
	case ".zst", ".zstd":
		return "zstd"
	case ".lz4":
		return "lz4"
	}
	return ""
}

// decompress wraps r in a reader for codec.
func decompress(codec string, r io.Reader) (io.Reader, func() error, error) {
	switch codec {
	case "gzip":
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil

	case "bzip2":
		return bzip2.NewReader(r), nil, nil

	case "xz":
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, nil, nil

	case "zstd":
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error { decoder.Close(); return nil }, nil

	case "lz4":
		return lz4.NewReader(r), nil, nil
	}
	return r, nil, nil
}
