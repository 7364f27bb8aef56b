package rhythm

import (
	"fmt"
	"regexp"
	"strconv"
)

// Rational is an exact fraction of whole-note units. Score quantities stay in
// this form until a tempo converts them to wall-clock time, so no floating
// point error accumulates while positions and durations are combined.
type Rational struct {
	Num int
	Den int
}

var rationalPattern = regexp.MustCompile(`^(-?\d+)/([0-9]+)$`)

// NewRational builds a fraction with a positive denominator.
func NewRational(num, den int) (Rational, error) {
	if den <= 0 {
		return Rational{}, fmt.Errorf("rational %d/%d: denominator must be positive", num, den)
	}
	return Rational{Num: num, Den: den}, nil
}

// ParseRational parses a plain signed fraction like "3/4" or "-1/2".
func ParseRational(s string) (Rational, error) {
	m := rationalPattern.FindStringSubmatch(s)
	if m == nil {
		return Rational{}, fmt.Errorf("%w: %q is not a fraction", ErrBadQuantity, s)
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return Rational{}, fmt.Errorf("%w: numerator of %q: %v", ErrBadQuantity, s, err)
	}
	den, err := strconv.Atoi(m[2])
	if err != nil {
		return Rational{}, fmt.Errorf("%w: denominator of %q: %v", ErrBadQuantity, s, err)
	}
	if den == 0 {
		return Rational{}, fmt.Errorf("%w: %q has a zero denominator", ErrBadQuantity, s)
	}
	return Rational{Num: num, Den: den}, nil
}

// Float64 converts the fraction to its floating point value.
func (r Rational) Float64() float64 {
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
