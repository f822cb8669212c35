package quantity

import (
	"regexp"
	"strings"
	"unicode"
)

// Sanitize cleans raw keystroke input into the only shapes a quantity field
// may hold: digits, one "/", at most one "." (never together with "/"), and a
// single interior space separating the whole part of a mixed fraction.
// A trailing space is kept so "1 " can still grow into "1 1/2".
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	lastSpace := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '/', r == '.':
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
		}
	}
	s := strings.TrimLeft(b.String(), " ")

	s = keepFirst(s, '/')
	if strings.IndexByte(s, '/') >= 0 {
		s = strings.ReplaceAll(s, ".", "")
	} else {
		s = keepFirst(s, '.')
	}
	return keepFirst(s, ' ')
}

// keepFirst drops every occurrence of c after the first one.
func keepFirst(s string, c byte) string {
	i := strings.IndexByte(s, c)
	if i < 0 {
		return s
	}
	return s[:i+1] + strings.ReplaceAll(s[i+1:], string(c), "")
}

var partialPattern = regexp.MustCompile(`^(\d+\.?|\d+\.\d+|\d+/|\d+/\d+|\d+ |\d+ \d+/?|\d+ \d+/\d+)$`)

// IsPartiallyValid reports whether s (already sanitized) is a prefix of some
// valid quantity: "", "1", "1.", "1.5", "1/", "1/2", "1 ", "1 1", "1 1/",
// "1 1/2".
func IsPartiallyValid(s string) bool {
	if s == "" {
		return true
	}
	return partialPattern.MatchString(s)
}

// Accept runs one keystroke through sanitize and the prefix check. When the
// cleaned text could never become a valid quantity the current value is kept
// and ok is false; the cleaned text is never coerced into something else.
func Accept(current, typed string) (next string, ok bool) {
	cleaned := Sanitize(typed)
	if !IsPartiallyValid(cleaned) {
		return current, false
	}
	return cleaned, true
}
