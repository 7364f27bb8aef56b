package rhythm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrBadQuantity reports a note value or fraction that cannot be parsed.
var ErrBadQuantity = errors.New("rhythm: bad quantity")

var noteValuePattern = regexp.MustCompile(`^(\d*)([*/])(\d+)(d*)$`)

// ParseNoteValueQuantity parses a conventional note value token into a
// fraction of a whole note. The token is an optional multiplier, a '*' or '/'
// separator, a power-of-two base value and zero or more augmentation dots:
//
//	/4    quarter note        1/4
//	*2    double whole note   2/1
//	/4d   dotted quarter      3/8
//	/8dd  double dotted 8th   7/32
//	3/8   three eighths       3/8
func ParseNoteValueQuantity(token string) (Rational, error) {
	m := noteValuePattern.FindStringSubmatch(token)
	if m == nil {
		return Rational{}, fmt.Errorf("%w: %q is not a note value", ErrBadQuantity, token)
	}

	multiplier := 1
	if m[1] != "" {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return Rational{}, fmt.Errorf("%w: multiplier of %q: %v", ErrBadQuantity, token, err)
		}
		multiplier = v
	}

	base, err := strconv.Atoi(m[3])
	if err != nil {
		return Rational{}, fmt.Errorf("%w: base of %q: %v", ErrBadQuantity, token, err)
	}
	if !IsPowerOf2(base) {
		return Rational{}, fmt.Errorf("%w: base %d of %q is not a power of two", ErrBadQuantity, base, token)
	}

	// n dots multiply the plain value by (2^(n+1) - 1) / 2^n.
	dots := len(m[4])
	num := multiplier * (1<<(dots+1) - 1)
	den := 1 << dots
	if m[2] == "/" {
		den *= base
	} else {
		num *= base
	}
	return Rational{Num: num, Den: den}, nil
}

// IsPowerOf2 reports whether n is a positive power of two. 1 counts.
func IsPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
