package csvstream

import "slices"

// HeaderMode selects how a [Parser] obtains its column labels.
type HeaderMode int

const (
	// HeaderAuto consumes the first row as the header row.
	HeaderAuto HeaderMode = iota
	// HeaderNone labels columns "0", "1", ... and treats the first row as data.
	HeaderNone
	// HeaderExplicit uses Options.Headers. It is implied by a non-empty Headers.
	HeaderExplicit
)

// String returns the mode name.
func (m HeaderMode) String() string {
	switch m {
	case HeaderAuto:
		return "auto"
	case HeaderNone:
		return "none"
	case HeaderExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// DefaultComment is the comment byte used when comment skipping is simply
// switched on.
const DefaultComment = '#'

// DefaultCharset is the charset assumed for input without a byte-order mark.
const DefaultCharset = "utf-8"

// Options configures a [Parser]. The zero value is a valid configuration:
// every zero field selects its default. Options are copied by [NewParser]
// and cannot be changed afterwards.
type Options struct {
	// Escape is the byte that, directly before a quote inside a quoted cell,
	// makes that quote literal. Defaults to Quote, which gives the usual
	// doubled-quote escaping.
	Escape byte

	// Quote toggles quoted state. Defaults to '"'.
	Quote byte

	// Separator delimits cells. Defaults to ','.
	Separator byte

	// Newline terminates rows. Defaults to '\n'. A '\r' directly before it
	// is trimmed.
	Newline byte

	// Raw replaces invalid UTF-8 in cells with U+FFFD instead of failing the row.
	Raw bool

	// Strict fails rows whose cell count differs from the header count.
	Strict bool

	// MaxRowBytes bounds the byte length of a row, terminator included.
	// Zero means unbounded.
	MaxRowBytes int

	// HeaderMode selects header handling. Headers, when non-empty, always
	// selects HeaderExplicit.
	HeaderMode HeaderMode

	// Headers are explicit column labels.
	Headers []string

	// Comment, if not 0, discards rows whose first non-blank byte equals it.
	Comment byte

	// SkipLines discards this many leading rows, counted after comment rows
	// are removed.
	SkipLines int

	// Charset names the encoding of input that carries no byte-order mark:
	// "utf-8", "utf-16le", "utf-16be", "latin1", any WHATWG encoding label,
	// or "auto" to sniff the input. Defaults to DefaultCharset.
	Charset string

	// MapHeaders, if set, rewrites each resolved header label. Returning ""
	// drops the column from labeled views of the row.
	MapHeaders func(header string, index int) string

	// MapValues, if set, rewrites each cell of an emitted row.
	MapValues func(header string, index int, value string) string
}

// config is the resolved, immutable form of Options.
type config struct {
	escape      byte
	quote       byte
	separator   byte
	newline     byte
	raw         bool
	strict      bool
	maxRowBytes int
	headerMode  HeaderMode
	headers     []string
	comment     byte
	skipLines   int
	charset     string
	mapHeaders  func(string, int) string
	mapValues   func(string, int, string) string
}

// resolve fills in defaults. It does not validate.
func (o Options) resolve() config {
	c := config{
		escape:      o.Escape,
		quote:       o.Quote,
		separator:   o.Separator,
		newline:     o.Newline,
		raw:         o.Raw,
		strict:      o.Strict,
		maxRowBytes: o.MaxRowBytes,
		headerMode:  o.HeaderMode,
		comment:     o.Comment,
		skipLines:   o.SkipLines,
		charset:     o.Charset,
		mapHeaders:  o.MapHeaders,
		mapValues:   o.MapValues,
	}
	if c.quote == 0 {
		c.quote = '"'
	}
	if c.escape == 0 {
		c.escape = c.quote
	}
	if c.separator == 0 {
		c.separator = ','
	}
	if c.newline == 0 {
		c.newline = '\n'
	}
	if c.charset == "" {
		c.charset = DefaultCharset
	}
	if len(o.Headers) > 0 && c.headerMode != HeaderNone {
		c.headerMode = HeaderExplicit
		c.headers = slices.Clone(o.Headers)
	}
	return c
}

// quoting returns the quote/escape pair used by the scanner.
func (c *config) quoting() quoting {
	return quoting{quote: c.quote, escape: c.escape}
}
