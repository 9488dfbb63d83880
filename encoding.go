package csvstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// Charsets
// =============================================================================

// charsetAuto selects sniffing of BOM-less input.
const charsetAuto = "auto"

// sniffSize is how many bytes "auto" waits for before sniffing, unless the
// input ends first.
const sniffSize = 1024

// transcodeBufSize is the scratch size for one Transform step.
const transcodeBufSize = 4096

// Byte-order marks recognised on the first chunk.
var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// charset describes how raw input maps onto canonical UTF-8.
type charset struct {
	name     string
	encoding encoding.Encoding // nil means the bytes are already UTF-8
	order    binary.ByteOrder  // set for UTF-16 so code units can be checked
	auto     bool
}

var (
	charsetUTF8    = charset{name: "UTF-8"}
	charsetUTF16LE = charset{
		name:     "UTF-16LE",
		encoding: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
		order:    binary.LittleEndian,
	}
	charsetUTF16BE = charset{
		name:     "UTF-16BE",
		encoding: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
		order:    binary.BigEndian,
	}
	charsetLatin1 = charset{name: "ISO-8859-1", encoding: charmap.ISO8859_1}
)

// lookupCharset resolves a charset name. Besides the names handled here,
// any WHATWG encoding label is accepted.
func lookupCharset(name string) (charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return charsetUTF8, nil
	case "utf-16le", "utf16le":
		return charsetUTF16LE, nil
	case "utf-16be", "utf16be":
		return charsetUTF16BE, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		// WHATWG maps these labels to windows-1252; keep true Latin-1.
		return charsetLatin1, nil
	case charsetAuto:
		return charset{name: charsetAuto, auto: true}, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return charset{}, fmt.Errorf("unknown charset %q", name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}
	switch canonical {
	case "utf-8":
		return charsetUTF8, nil
	case "utf-16le":
		return charsetUTF16LE, nil
	case "utf-16be":
		return charsetUTF16BE, nil
	}
	return charset{name: canonical, encoding: enc}, nil
}

// sniffCharset guesses the charset of BOM-less input.
func sniffCharset(sample []byte) charset {
	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil {
		return charsetUTF8
	}
	cs, err := lookupCharset(result.Charset)
	if err != nil || cs.auto {
		log.Debugf("sniffed charset %q is not supported, using UTF-8", result.Charset)
		return charsetUTF8
	}
	log.Debugf("sniffed charset %s (confidence %d)", cs.name, result.Confidence)
	return cs
}

// =============================================================================
// Normalizer
// =============================================================================

// normalizer converts raw input chunks into canonical UTF-8. It detects a
// byte-order mark once, on the first call that has enough bytes, and only
// consumes whole characters; incomplete trailing units stay in raw.
type normalizer struct {
	fallback charset
	active   charset
	detected bool
	decoder  *encoding.Decoder

	raw     []byte // input not yet converted
	offset  int64  // raw input bytes consumed so far
	scratch []byte
}

// newNormalizer returns a normalizer that decodes BOM-less input as fallback.
func newNormalizer(fallback charset) *normalizer {
	return &normalizer{fallback: fallback}
}

// feed converts chunk, together with any held-back bytes, and appends the
// UTF-8 result to dst. With final set, detection is forced and bytes that
// still cannot be decoded are an error.
func (n *normalizer) feed(dst, chunk []byte, final bool) ([]byte, error) {
	if n.detected && n.decoder == nil && len(n.raw) == 0 {
		// UTF-8 input needs no staging.
		n.offset += int64(len(chunk))
		return append(dst, chunk...), nil
	}

	n.raw = append(n.raw, chunk...)
	if !n.detected && !n.detect(final) {
		return dst, nil
	}

	if n.decoder == nil {
		dst = append(dst, n.raw...)
		n.consume(len(n.raw))
		return dst, nil
	}

	dst, err := n.transcode(dst)
	if err != nil {
		return dst, err
	}
	if final && len(n.raw) > 0 {
		offset := n.offset
		n.consume(len(n.raw))
		return dst, &EncodingError{
			Charset: n.active.name,
			Offset:  offset,
			Err:     fmt.Errorf("%w: input ends inside a character", ErrInvalidEncoding),
		}
	}
	return dst, nil
}

// hold buffers chunk without converting it.
func (n *normalizer) hold(chunk []byte) {
	n.raw = append(n.raw, chunk...)
}

// detect inspects the start of the input for a byte-order mark and chooses
// the active charset. It reports false when more bytes are needed.
func (n *normalizer) detect(final bool) bool {
	raw := n.raw
	if len(raw) == 0 {
		return false
	}
	if !final && (len(raw) < 2 || bytes.Equal(raw, bomUTF8[:2])) {
		return false
	}

	switch {
	case bytes.HasPrefix(raw, bomUTF16LE):
		n.use(charsetUTF16LE)
		n.consume(len(bomUTF16LE))
	case bytes.HasPrefix(raw, bomUTF16BE):
		n.use(charsetUTF16BE)
		n.consume(len(bomUTF16BE))
	case bytes.HasPrefix(raw, bomUTF8):
		n.use(charsetUTF8)
		n.consume(len(bomUTF8))
	case n.fallback.auto:
		if len(raw) < sniffSize && !final {
			return false
		}
		n.use(sniffCharset(raw))
	default:
		n.use(n.fallback)
	}
	n.detected = true
	log.Debugf("input encoding %s", n.active.name)
	return true
}

// use activates cs.
func (n *normalizer) use(cs charset) {
	n.active = cs
	n.decoder = nil
	if cs.encoding != nil {
		n.decoder = cs.encoding.NewDecoder()
		n.scratch = make([]byte, transcodeBufSize)
	}
}

// transcode decodes as much of raw as forms whole characters.
func (n *normalizer) transcode(dst []byte) ([]byte, error) {
	start := len(dst)
	src := n.raw
	consumed := 0
	for consumed < len(src) {
		nDst, nSrc, err := n.decoder.Transform(n.scratch, src[consumed:], false)
		if n.active.order != nil {
			if bad := invalidUTF16(src[consumed:consumed+nSrc], n.active.order); bad >= 0 {
				offset := n.offset + int64(consumed+bad)
				n.discard()
				return dst[:start], &EncodingError{
					Charset: n.active.name,
					Offset:  offset,
					Err:     fmt.Errorf("%w: unpaired surrogate", ErrInvalidEncoding),
				}
			}
		}
		dst = append(dst, n.scratch[:nDst]...)
		consumed += nSrc

		if errors.Is(err, transform.ErrShortDst) {
			continue
		}
		if err != nil && !errors.Is(err, transform.ErrShortSrc) {
			offset := n.offset + int64(consumed)
			n.discard()
			return dst[:start], &EncodingError{
				Charset: n.active.name,
				Offset:  offset,
				Err:     fmt.Errorf("%w: %v", ErrInvalidEncoding, err),
			}
		}
		break
	}
	n.consume(consumed)
	return dst, nil
}

// consume drops k bytes from the front of raw.
func (n *normalizer) consume(k int) {
	rest := copy(n.raw, n.raw[k:])
	n.raw = n.raw[:rest]
	n.offset += int64(k)
}

// discard drops held-back input after an encoding error. For UTF-16 only
// whole code units are dropped; a trailing odd byte is the first half of a
// unit that the next chunk completes.
func (n *normalizer) discard() {
	k := len(n.raw)
	if n.active.order != nil {
		k &^= 1
	}
	n.consume(k)
}

// charsetName returns the active charset, or "" before detection.
func (n *normalizer) charsetName() string {
	if !n.detected {
		return ""
	}
	return n.active.name
}

// invalidUTF16 returns the byte offset of the first unpaired surrogate in b,
// or -1. b holds only units the decoder consumed, so a high surrogate in the
// last unit was consumed without its pair.
func invalidUTF16(b []byte, order binary.ByteOrder) int {
	for i := 0; i+1 < len(b); i += 2 {
		u := order.Uint16(b[i:])
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+3 >= len(b) {
				return i
			}
			if v := order.Uint16(b[i+2:]); v < 0xDC00 || v > 0xDFFF {
				return i
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return i
		}
	}
	return -1
}
