package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nnnkkk7/go-csvstream"
	"github.com/spf13/pflag"
)

// parseFlags are the tokenizer settings shared by the sub-commands.
type parseFlags struct {
	separator    string
	quote        string
	escape       string
	newline      string
	raw          bool
	strict       bool
	maxRowBytes  int
	headers      []string
	noHeaders    bool
	skipComments string
	skipLines    int
	charset      string
	chunkSize    int
}

func (f *parseFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.separator, "separator", ",", "cell separator byte")
	fs.StringVar(&f.quote, "quote", `"`, "quote byte")
	fs.StringVar(&f.escape, "escape", "", "escape byte inside quotes (default: the quote byte)")
	fs.StringVar(&f.newline, "newline", `\n`, "row terminator byte")
	fs.BoolVar(&f.raw, "raw", false, "replace invalid UTF-8 instead of failing the row")
	fs.BoolVar(&f.strict, "strict", false, "fail rows whose cell count differs from the headers")
	fs.IntVar(&f.maxRowBytes, "max-row-bytes", 0, "fail rows longer than this many bytes (0: unbounded)")
	fs.StringSliceVar(&f.headers, "headers", nil, "explicit column labels")
	fs.BoolVar(&f.noHeaders, "no-headers", false, "label columns 0..n-1 and treat the first row as data")
	fs.StringVar(&f.skipComments, "skip-comments", "false", `skip comment rows: "true" for '#', "false", or a single byte`)
	fs.IntVar(&f.skipLines, "skip-lines", 0, "discard this many leading rows")
	fs.StringVar(&f.charset, "charset", csvstream.DefaultCharset, `encoding of input without a byte-order mark, or "auto"`)
	fs.IntVar(&f.chunkSize, "chunk-size", csvstream.DefaultBufferSize, "bytes read per chunk")
}

// options converts the flags into parser options.
func (f *parseFlags) options() (csvstream.Options, error) {
	var opts csvstream.Options
	var err error

	if opts.Separator, err = byteFlag("separator", f.separator); err != nil {
		return opts, err
	}
	if opts.Quote, err = byteFlag("quote", f.quote); err != nil {
		return opts, err
	}
	if f.escape != "" {
		if opts.Escape, err = byteFlag("escape", f.escape); err != nil {
			return opts, err
		}
	}
	if opts.Newline, err = byteFlag("newline", f.newline); err != nil {
		return opts, err
	}
	if opts.Comment, err = commentFlag(f.skipComments); err != nil {
		return opts, err
	}

	opts.Raw = f.raw
	opts.Strict = f.strict
	opts.MaxRowBytes = f.maxRowBytes
	opts.SkipLines = f.skipLines
	opts.Charset = f.charset

	switch {
	case f.noHeaders && len(f.headers) > 0:
		return opts, fmt.Errorf("--headers and --no-headers are mutually exclusive")
	case f.noHeaders:
		opts.HeaderMode = csvstream.HeaderNone
	case len(f.headers) > 0:
		opts.HeaderMode = csvstream.HeaderExplicit
		opts.Headers = f.headers
	}
	return opts, nil
}

// byteFlag reads a flag that must name one ASCII byte. Go escapes such as
// \t are accepted.
func byteFlag(name, value string) (byte, error) {
	s := value
	if strings.HasPrefix(s, `\`) {
		unquoted, err := strconv.Unquote(`'` + s + `'`)
		if err != nil {
			return 0, fmt.Errorf("--%s: invalid escape %q", name, value)
		}
		s = unquoted
	}
	if len(s) != 1 || s[0] >= 0x80 {
		return 0, fmt.Errorf("--%s must be a single ASCII byte, got %q", name, value)
	}
	return s[0], nil
}

// commentFlag maps --skip-comments onto a comment byte, 0 meaning off.
func commentFlag(value string) (byte, error) {
	switch strings.ToLower(value) {
	case "", "false":
		return 0, nil
	case "true":
		return csvstream.DefaultComment, nil
	}
	return byteFlag("skip-comments", value)
}
