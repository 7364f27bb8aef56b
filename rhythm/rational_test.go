package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRational(t *testing.T) {
	t.Parallel()

	r, err := NewRational(3, 8)
	require.NoError(t, err)
	assert.Equal(t, "3/8", r.String())
	assert.InDelta(t, 0.375, r.Float64(), 1e-12)

	_, err = NewRational(1, 0)
	require.Error(t, err)

	_, err = NewRational(1, -4)
	require.Error(t, err)
}

func TestParseRational(t *testing.T) {
	t.Parallel()

	r, err := ParseRational("3/4")
	require.NoError(t, err)
	assert.Equal(t, Rational{Num: 3, Den: 4}, r)

	r, err = ParseRational("-1/2")
	require.NoError(t, err)
	assert.Equal(t, Rational{Num: -1, Den: 2}, r)

	for _, s := range []string{"", "3", "3/", "/4", "3/0", "a/b", "1/2/3", "0.5"} {
		_, err := ParseRational(s)
		require.Error(t, err, "input %q", s)
		assert.ErrorIs(t, err, ErrBadQuantity, "input %q", s)
	}
}
