package surface

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// rootID is reserved for the implicit root every declared element hangs off.
const rootID = "root"

// Memory is an in-memory Surface holding the geometry of one view. It is the
// rendering target used by the playback engine when no real display is wired
// up, and the source of truth the control surfaces read.
type Memory struct {
	name string

	mu      sync.RWMutex
	root    *memoryElement
	byID    map[string]*memoryElement
	created int64
}

// Create a new Memory surface for the named view.
func NewMemory(name string) *Memory {
	m := &Memory{
		name: name,
		byID: make(map[string]*memoryElement),
	}
	m.root = &memoryElement{surf: m, id: rootID, kind: KindRect}
	m.byID[rootID] = m.root
	return m
}

// Name returns the view name the surface renders.
func (m *Memory) Name() string {
	return m.name
}

// AddElement declares a score element with a fixed bounding box. The element
// is attached under the root. Duplicate ids are rejected.
func (m *Memory) AddElement(id string, kind Kind, box Rect) (Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		return nil, fmt.Errorf("surface %s: element id must not be empty", m.name)
	}
	if _, found := m.byID[id]; found {
		return nil, fmt.Errorf("surface %s already contains an element with the id: %s", m.name, id)
	}
	el := &memoryElement{
		surf:   m,
		id:     id,
		kind:   kind,
		box:    box,
		parent: m.root,
	}
	m.byID[id] = el
	return el, nil
}

// ElementByID resolves a declared element.
func (m *Memory) ElementByID(id string) (Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if el, found := m.byID[id]; found {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s has no element with the id: %s", ErrUnknownElement, m.name, id)
}

// CreateElement mints a detached element of the given kind.
func (m *Memory) CreateElement(kind Kind) Element {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	el := &memoryElement{
		surf:   m,
		id:     fmt.Sprintf("el-%d", m.created),
		kind:   kind,
		minted: true,
		nums:   make(map[string]float64),
		strs:   make(map[string]string),
	}
	m.byID[el.id] = el
	return el
}

// Parent returns the element's current parent, or nil when detached.
func (m *Memory) Parent(el Element) Element {
	m.mu.RLock()
	defer m.mu.RUnlock()

	me, ok := el.(*memoryElement)
	if !ok || me.parent == nil {
		return nil
	}
	return me.parent
}

// Attach places child under parent.
func (m *Memory) Attach(parent, child Element) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pe, ok := parent.(*memoryElement)
	if !ok {
		pe = m.root
	}
	if ce, ok := child.(*memoryElement); ok {
		ce.parent = pe
	}
}

// Detach removes child from its parent.
func (m *Memory) Detach(child Element) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ce, ok := child.(*memoryElement); ok {
		ce.parent = nil
	}
}

// Attached reports whether the element currently has a parent.
func (m *Memory) Attached(el Element) bool {
	return m.Parent(el) != nil
}

// AttachedIDs returns the ids of the minted elements that are currently
// attached, sorted for stable output. Declared elements are not included.
func (m *Memory) AttachedIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for id, el := range m.byID {
		if el.minted && el.parent != nil {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

type memoryElement struct {
	surf   *Memory
	id     string
	kind   Kind
	box    Rect
	minted bool
	parent *memoryElement
	nums   map[string]float64
	strs   map[string]string
}

func (el *memoryElement) ID() string {
	return el.id
}

func (el *memoryElement) Kind() Kind {
	return el.kind
}

// BoundingBox returns the declared box, or one derived from the paint
// attributes for minted elements.
func (el *memoryElement) BoundingBox() Rect {
	el.surf.mu.RLock()
	defer el.surf.mu.RUnlock()

	if !el.minted {
		return el.box
	}
	if el.kind == KindLine {
		x1, y1 := el.nums["x1"], el.nums["y1"]
		x2, y2 := el.nums["x2"], el.nums["y2"]
		box := Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
		if box.Width < 0 {
			box.X, box.Width = x2, -box.Width
		}
		if box.Height < 0 {
			box.Y, box.Height = y2, -box.Height
		}
		return box
	}
	return Rect{
		X:      el.nums["x"],
		Y:      el.nums["y"],
		Width:  el.nums["width"],
		Height: el.nums["height"],
	}
}

func (el *memoryElement) SetNum(attr string, value float64) {
	el.surf.mu.Lock()
	defer el.surf.mu.Unlock()

	if el.nums == nil {
		el.nums = make(map[string]float64)
	}
	el.nums[attr] = value
}

func (el *memoryElement) Num(attr string) (float64, bool) {
	el.surf.mu.RLock()
	defer el.surf.mu.RUnlock()

	v, ok := el.nums[attr]
	return v, ok
}

func (el *memoryElement) SetStr(attr string, value string) {
	el.surf.mu.Lock()
	defer el.surf.mu.Unlock()

	if el.strs == nil {
		el.strs = make(map[string]string)
	}
	el.strs[attr] = value
}

func (el *memoryElement) Str(attr string) (string, bool) {
	el.surf.mu.RLock()
	defer el.surf.mu.RUnlock()

	v, ok := el.strs[attr]
	return v, ok
}
