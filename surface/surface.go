package surface

import "errors"

// ErrUnknownElement reports a reference to an element id the surface does not
// contain.
var ErrUnknownElement = errors.New("surface: unknown element")

// Kind enumerates the element kinds a surface can paint.
type Kind string

const (
	KindRect Kind = "rect"
	KindLine Kind = "line"
)

// Rect is an axis-aligned box in view coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Element is a paintable handle on a surface. Score elements come from the
// score itself; decoration visuals are minted with CreateElement.
type Element interface {
	// ID returns the element id, unique within its surface.
	ID() string

	// Kind returns the element kind.
	Kind() Kind

	// BoundingBox returns the element's box in view coordinates.
	BoundingBox() Rect

	// SetNum sets a numeric paint attribute such as "x1" or "opacity".
	SetNum(attr string, value float64)

	// Num reads a numeric paint attribute back.
	Num(attr string) (float64, bool)

	// SetStr sets a string paint attribute such as "fill".
	SetStr(attr string, value string)

	// Str reads a string paint attribute back.
	Str(attr string) (string, bool)
}

// Surface is the rendering capability a view exposes to decorations: resolve
// score elements by id, mint new paintable elements and control attachment.
type Surface interface {
	// Name returns the view name the surface renders.
	Name() string

	// ElementByID resolves a score element. The error wraps
	// ErrUnknownElement when the id is not present.
	ElementByID(id string) (Element, error)

	// CreateElement mints a detached element of the given kind.
	CreateElement(kind Kind) Element

	// Parent returns the element's current parent, or nil when detached.
	Parent(el Element) Element

	// Attach places child under parent. Attaching an already attached
	// element moves it.
	Attach(parent, child Element)

	// Detach removes child from its parent. Detaching a detached element
	// has no effect.
	Detach(child Element)
}
