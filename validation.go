package csvstream

import "fmt"

// =============================================================================
// Options Validation
// =============================================================================

// validate reports the first inconsistency in a resolved configuration.
// The raw Options are needed to tell an explicit HeaderNone with headers
// apart from a plain header list.
func (c *config) validate(o Options) error {
	if err := validateStructuralBytes(c); err != nil {
		return err
	}
	if c.maxRowBytes < 0 {
		return invalidOptions("MaxRowBytes must not be negative, got %d", c.maxRowBytes)
	}
	if c.skipLines < 0 {
		return invalidOptions("SkipLines must not be negative, got %d", c.skipLines)
	}
	switch o.HeaderMode {
	case HeaderAuto:
	case HeaderNone:
		if len(o.Headers) > 0 {
			return invalidOptions("HeaderNone cannot be combined with explicit Headers")
		}
	case HeaderExplicit:
		if len(o.Headers) == 0 {
			return invalidOptions("HeaderExplicit requires at least one header")
		}
	default:
		return invalidOptions("unknown HeaderMode %d", int(o.HeaderMode))
	}
	if _, err := lookupCharset(c.charset); err != nil {
		return invalidOptions("%v", err)
	}
	return nil
}

// validateStructuralBytes checks that separator, quote, newline, escape and
// comment bytes do not collide.
func validateStructuralBytes(c *config) error {
	structural := []struct {
		name string
		b    byte
	}{
		{"Separator", c.separator},
		{"Quote", c.quote},
		{"Newline", c.newline},
	}
	for i, a := range structural {
		if a.b == '\r' {
			return invalidOptions("%s must not be '\\r'", a.name)
		}
		for _, b := range structural[i+1:] {
			if a.b == b.b {
				return invalidOptions("%s and %s must differ, both are %q", a.name, b.name, a.b)
			}
		}
	}
	if c.escape != c.quote && (c.escape == c.separator || c.escape == c.newline) {
		return invalidOptions("Escape %q collides with Separator or Newline", c.escape)
	}
	if c.comment != 0 && (c.comment == c.separator || c.comment == c.newline) {
		return invalidOptions("Comment %q collides with Separator or Newline", c.comment)
	}
	return nil
}

// invalidOptions returns an error wrapping ErrInvalidOptions.
func invalidOptions(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
}
