package quantity

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/fdg312/mealcart/internal/apperr"
)

const maxInputLen = 32

var (
	decimalPattern  = regexp.MustCompile(`^\d+(\.\d+)?$`)
	fractionPattern = regexp.MustCompile(`^(\d+)/(\d+)$`)
	mixedPattern    = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)$`)
)

// Parse converts a quantity string into an exact positive rational.
//
// Accepted forms are "2", "2.25", "1/2" and "1 1/2". Blank input means the
// line has no quantity ("to taste") and yields (nil, nil). Anything else,
// including zero, a zero denominator and values that are not positive, is a
// validation error; nothing is clamped.
func Parse(raw string) (*big.Rat, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if len(s) > maxInputLen {
		return nil, apperr.Validation("invalid_quantity", "quantity %q is too long", raw)
	}

	var q *big.Rat
	switch {
	case decimalPattern.MatchString(s):
		q = mustRat(s)

	case fractionPattern.MatchString(s):
		m := fractionPattern.FindStringSubmatch(s)
		frac, err := fraction(m[1], m[2])
		if err != nil {
			return nil, err
		}
		q = frac

	case mixedPattern.MatchString(s):
		m := mixedPattern.FindStringSubmatch(s)
		frac, err := fraction(m[2], m[3])
		if err != nil {
			return nil, err
		}
		q = new(big.Rat).Add(mustRat(m[1]), frac)

	default:
		return nil, apperr.Validation("invalid_quantity", "invalid quantity %q, use 0.5, 1/2 or 1 1/2", raw)
	}

	if q.Sign() <= 0 {
		return nil, apperr.Validation("non_positive_quantity", "quantity %q must be greater than zero", raw)
	}
	return q, nil
}

// MustParse is Parse for literals in tests and seed data.
func MustParse(raw string) *big.Rat {
	q, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return q
}

func fraction(num, den string) (*big.Rat, error) {
	d := mustRat(den)
	if d.Sign() == 0 {
		return nil, apperr.Validation("zero_denominator", "quantity %s/%s has a zero denominator", num, den)
	}
	return new(big.Rat).Quo(mustRat(num), d), nil
}

// mustRat parses a string the patterns above have already validated.
func mustRat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("quantity: unparseable validated literal " + s)
	}
	return r
}
