package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndResolveElements(t *testing.T) {
	t.Parallel()

	m := NewMemory("page1")
	require.Equal(t, "page1", m.Name())

	// declare a couple of score elements
	_, err := m.AddElement("n1", KindRect, Rect{X: 10, Y: 20, Width: 30, Height: 40})
	require.NoError(t, err)
	_, err = m.AddElement("n2", KindRect, Rect{X: 50, Y: 20, Width: 30, Height: 40})
	require.NoError(t, err)

	el, err := m.ElementByID("n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", el.ID())
	assert.Equal(t, Rect{X: 10, Y: 20, Width: 30, Height: 40}, el.BoundingBox())
	assert.Equal(t, 40.0, el.BoundingBox().Right())
	assert.Equal(t, 60.0, el.BoundingBox().Bottom())

	// declared elements start out attached under the root
	assert.True(t, m.Attached(el))
}

func TestDuplicateElementIDRejected(t *testing.T) {
	t.Parallel()

	m := NewMemory("page1")
	_, err := m.AddElement("n1", KindRect, Rect{Width: 1, Height: 1})
	require.NoError(t, err)
	_, err = m.AddElement("n1", KindRect, Rect{Width: 2, Height: 2})
	require.Error(t, err)
}

func TestUnknownElementError(t *testing.T) {
	t.Parallel()

	m := NewMemory("page1")
	_, err := m.ElementByID("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestAttachDetachMintedElement(t *testing.T) {
	t.Parallel()

	m := NewMemory("page1")
	target, err := m.AddElement("n1", KindRect, Rect{X: 5, Y: 5, Width: 10, Height: 10})
	require.NoError(t, err)

	visual := m.CreateElement(KindRect)
	assert.False(t, m.Attached(visual))

	m.Attach(m.Parent(target), visual)
	assert.True(t, m.Attached(visual))
	assert.Equal(t, []string{visual.ID()}, m.AttachedIDs())

	m.Detach(visual)
	assert.False(t, m.Attached(visual))
	assert.Empty(t, m.AttachedIDs())

	// detaching again is harmless
	m.Detach(visual)
	assert.False(t, m.Attached(visual))
}

func TestPaintAttributes(t *testing.T) {
	t.Parallel()

	m := NewMemory("page1")
	el := m.CreateElement(KindRect)
	el.SetNum("x", 12)
	el.SetNum("y", 8)
	el.SetNum("width", 100)
	el.SetNum("height", 50)
	el.SetStr("fill", "#2E8B57")

	v, ok := el.Num("width")
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
	s, ok := el.Str("fill")
	require.True(t, ok)
	assert.Equal(t, "#2E8B57", s)

	// minted rects derive their box from the paint attributes
	assert.Equal(t, Rect{X: 12, Y: 8, Width: 100, Height: 50}, el.BoundingBox())

	_, ok = el.Num("opacity")
	assert.False(t, ok)
}

func TestLineBoundingBoxNormalizes(t *testing.T) {
	t.Parallel()

	m := NewMemory("page1")
	line := m.CreateElement(KindLine)
	line.SetNum("x1", 100)
	line.SetNum("y1", 80)
	line.SetNum("x2", 40)
	line.SetNum("y2", 20)

	assert.Equal(t, Rect{X: 40, Y: 20, Width: 60, Height: 60}, line.BoundingBox())
}
