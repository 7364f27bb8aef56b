package decoration

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/joeberkovitz/gmnx-viewer/surface"
)

// Kind enumerates the decoration kinds.
type Kind int

const (
	// KindRegion fills the bounding box of its element over a time span.
	KindRegion Kind = iota
	// KindGraphic highlights the element of a sounding event.
	KindGraphic
	// KindCursor sweeps a line between two edges over a time span.
	KindCursor
)

func (k Kind) String() string {
	switch k {
	case KindRegion:
		return "region"
	case KindGraphic:
		return "graphic"
	case KindCursor:
		return "cursor"
	}
	return "unknown"
}

// Endpoints is a line position: two points in view coordinates.
type Endpoints struct {
	X1, Y1, X2, Y2 float64
}

// Decoration is one visual affordance bound to a score element: a region
// fill, an event graphic or a swept cursor. The visual element is minted on
// the first show and reused for every later show/hide cycle.
type Decoration struct {
	id     int64
	kind   Kind
	surf   surface.Surface
	target surface.Element
	start  float64
	end    float64
	style  Style

	cursorStart Endpoints
	cursorEnd   Endpoints
	cursor      CursorConfig

	mu          sync.Mutex
	visual      surface.Element
	highlighted bool
	interp      *interpolator
}

// NewRegion builds a fill decoration over the bounding box of the referenced
// element, highlighted from start to end (whole-note units).
func NewRegion(id int64, surf surface.Surface, elementID string, start, end float64, style Style) (*Decoration, error) {
	return newBoxed(id, KindRegion, surf, elementID, start, end, style)
}

// NewGraphic builds an event-graphic decoration over the referenced element.
func NewGraphic(id int64, surf surface.Surface, elementID string, start, end float64, style Style) (*Decoration, error) {
	return newBoxed(id, KindGraphic, surf, elementID, start, end, style)
}

func newBoxed(id int64, kind Kind, surf surface.Surface, elementID string, start, end float64, style Style) (*Decoration, error) {
	target, err := surf.ElementByID(elementID)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("%s on %s: span %v..%v is empty", kind, elementID, start, end)
	}
	return &Decoration{
		id:     id,
		kind:   kind,
		surf:   surf,
		target: target,
		start:  start,
		end:    end,
		style:  style,
	}, nil
}

// NewCursor builds a swept-line decoration across the referenced element.
// The edges are "left", "right", "top", "bottom" or four whitespace-separated
// integer coordinates "x1 y1 x2 y2".
func NewCursor(id int64, surf surface.Surface, elementID string, start, end float64, startEdge, endEdge string, style Style, cfg CursorConfig) (*Decoration, error) {
	target, err := surf.ElementByID(elementID)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("cursor on %s: span %v..%v is empty", elementID, start, end)
	}
	if cfg.Position == nil {
		return nil, fmt.Errorf("cursor on %s: no position source", elementID)
	}
	box := target.BoundingBox()
	from, err := resolveEdge(startEdge, box)
	if err != nil {
		return nil, fmt.Errorf("cursor on %s: %w", elementID, err)
	}
	to, err := resolveEdge(endEdge, box)
	if err != nil {
		return nil, fmt.Errorf("cursor on %s: %w", elementID, err)
	}
	return &Decoration{
		id:          id,
		kind:        KindCursor,
		surf:        surf,
		target:      target,
		start:       start,
		end:         end,
		style:       style,
		cursorStart: from,
		cursorEnd:   to,
		cursor:      cfg.withDefaults(),
	}, nil
}

// ID returns the decoration id, unique within its performance.
func (d *Decoration) ID() int64 {
	return d.id
}

// Kind returns the decoration kind.
func (d *Decoration) Kind() Kind {
	return d.kind
}

// TargetID returns the id of the score element the decoration is bound to.
func (d *Decoration) TargetID() string {
	return d.target.ID()
}

// Span returns the highlighted time span in whole-note units.
func (d *Decoration) Span() (start, end float64) {
	return d.start, d.end
}

// Highlighted reports whether the decoration is currently shown.
func (d *Decoration) Highlighted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.highlighted
}

// Visual returns the minted element, or nil before the first show.
func (d *Decoration) Visual() surface.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visual
}

// Show attaches the decoration next to its element. Showing an already
// displayed decoration has no effect. The first show of a cursor starts its
// polling loop.
func (d *Decoration) Show() {
	d.mu.Lock()
	if d.visual == nil {
		d.visual = d.buildVisualLocked()
	}
	var ip *interpolator
	if !d.highlighted {
		d.highlighted = true
		d.surf.Attach(d.surf.Parent(d.target), d.visual)
		if d.kind == KindCursor && d.interp == nil {
			d.interp = newInterpolator(d)
			ip = d.interp
		}
	}
	d.mu.Unlock()

	if ip != nil {
		ip.start()
	}
}

// Hide detaches the decoration and releases the cursor polling loop. Hiding
// a hidden decoration has no effect.
func (d *Decoration) Hide() {
	d.mu.Lock()
	if !d.highlighted {
		d.mu.Unlock()
		return
	}
	d.highlighted = false
	d.surf.Detach(d.visual)
	ip := d.interp
	d.interp = nil
	d.mu.Unlock()

	if ip != nil {
		ip.stop()
	}
}

func (d *Decoration) buildVisualLocked() surface.Element {
	if d.kind == KindCursor {
		el := d.surf.CreateElement(surface.KindLine)
		el.SetNum("x1", d.cursorStart.X1)
		el.SetNum("y1", d.cursorStart.Y1)
		el.SetNum("x2", d.cursorStart.X2)
		el.SetNum("y2", d.cursorStart.Y2)
		el.SetStr("stroke", d.style.CursorStroke.Hex())
		el.SetNum("stroke-width", d.style.CursorWidth)
		return el
	}

	el := d.surf.CreateElement(surface.KindRect)
	box := d.target.BoundingBox()
	el.SetNum("x", box.X)
	el.SetNum("y", box.Y)
	el.SetNum("width", box.Width)
	el.SetNum("height", box.Height)
	fill := d.style.RegionFill
	if d.kind == KindGraphic {
		fill = d.style.GraphicFill
	}
	el.SetStr("fill", fill.Hex())
	el.SetNum("opacity", d.style.Opacity)
	return el
}

// interpolate repositions the cursor line for the given position in
// whole-note units. Progress runs unclamped so the line keeps moving at the
// same pace if polling outlives the span.
func (d *Decoration) interpolate(units float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// the loop can tick once more after a hide
	if !d.highlighted || d.visual == nil {
		return
	}

	p := (units - d.start) / (d.end - d.start)
	t := p
	if f := d.cursor.Easing; f != nil && p >= 0 && p <= 1 {
		t = f(p)
	}
	d.visual.SetNum("x1", lerp(d.cursorStart.X1, d.cursorEnd.X1, t))
	d.visual.SetNum("y1", lerp(d.cursorStart.Y1, d.cursorEnd.Y1, t))
	d.visual.SetNum("x2", lerp(d.cursorStart.X2, d.cursorEnd.X2, t))
	d.visual.SetNum("y2", lerp(d.cursorStart.Y2, d.cursorEnd.Y2, t))
}

// resolveEdge turns an edge descriptor into line endpoints on the box.
func resolveEdge(desc string, box surface.Rect) (Endpoints, error) {
	switch desc {
	case "left":
		return Endpoints{X1: box.X, Y1: box.Y, X2: box.X, Y2: box.Bottom()}, nil
	case "right":
		return Endpoints{X1: box.Right(), Y1: box.Y, X2: box.Right(), Y2: box.Bottom()}, nil
	case "top":
		return Endpoints{X1: box.X, Y1: box.Y, X2: box.Right(), Y2: box.Y}, nil
	case "bottom":
		return Endpoints{X1: box.X, Y1: box.Bottom(), X2: box.Right(), Y2: box.Bottom()}, nil
	}

	fields := strings.Fields(desc)
	if len(fields) != 4 {
		return Endpoints{}, fmt.Errorf("bad edge descriptor %q", desc)
	}
	coords := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Endpoints{}, fmt.Errorf("bad edge descriptor %q: %v", desc, err)
		}
		coords[i] = float64(v)
	}
	return Endpoints{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}, nil
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
