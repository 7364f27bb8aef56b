package score

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joeberkovitz/gmnx-viewer/rhythm"
)

// Performance kinds.
const (
	KindData  = "data"
	KindAudio = "audio"
)

// Quantity is a scalar score quantity in whole-note units. It accepts plain
// numbers ("0.5"), fractions ("3/4") and conventional note values ("/8d"), so
// scores can write durations the way musicians do.
type Quantity string

// UnmarshalYAML keeps the scalar text so numbers and tokens both survive.
func (q *Quantity) UnmarshalYAML(value *yaml.Node) error {
	*q = Quantity(value.Value)
	return nil
}

// Units resolves the quantity to whole-note units.
func (q Quantity) Units() (float64, error) {
	s := strings.TrimSpace(string(q))
	if s == "" {
		return 0, fmt.Errorf("%w: empty quantity", rhythm.ErrBadQuantity)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	if r, err := rhythm.ParseRational(s); err == nil {
		return r.Float64(), nil
	}
	r, err := rhythm.ParseNoteValueQuantity(s)
	if err != nil {
		return 0, err
	}
	return r.Float64(), nil
}

// Document is the parsed description of a score: the views it renders into
// and the performances that can play it.
type Document struct {
	Title        string            `yaml:"title,omitempty"`
	Styles       *StyleDecl        `yaml:"styles,omitempty"`
	Views        []ViewDecl        `yaml:"views"`
	Performances []PerformanceDecl `yaml:"performances,omitempty"`
}

// StyleDecl overrides the default decoration colors for this score. Empty
// fields keep the configured defaults.
type StyleDecl struct {
	RegionFill   string  `yaml:"regionFill,omitempty"`
	GraphicFill  string  `yaml:"graphicFill,omitempty"`
	CursorStroke string  `yaml:"cursorStroke,omitempty"`
	CursorWidth  float64 `yaml:"cursorWidth,omitempty"`
	Opacity      float64 `yaml:"opacity,omitempty"`
}

// ViewDecl declares one named view and the score elements it contains.
type ViewDecl struct {
	Name     string        `yaml:"name"`
	Elements []ElementDecl `yaml:"elements,omitempty"`
}

// ElementDecl declares one score element with its bounding box in view
// coordinates.
type ElementDecl struct {
	ID     string  `yaml:"id"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PerformanceDecl declares one way of performing the score. Data performances
// synthesize their events; audio performances play a recorded asset.
type PerformanceDecl struct {
	Name    string       `yaml:"name"`
	Kind    string       `yaml:"kind,omitempty"`
	Media   string       `yaml:"media,omitempty"`
	Tempos  []TempoDecl  `yaml:"tempos,omitempty"`
	Regions []RegionDecl `yaml:"regions,omitempty"`
	Events  []EventDecl  `yaml:"events,omitempty"`
}

// NormalizedKind returns the performance kind with the data default applied.
func (p PerformanceDecl) NormalizedKind() string {
	kind := strings.ToLower(strings.TrimSpace(p.Kind))
	if kind == "" {
		return KindData
	}
	return kind
}

// TempoDecl sets the pace from a position onwards: bpm counts of the given
// note value per minute.
type TempoDecl struct {
	Start Quantity `yaml:"start,omitempty"`
	BPM   float64  `yaml:"bpm"`
	Value string   `yaml:"value,omitempty"`
}

// RegionDecl highlights a score element over a time span. When both cursor
// edges are given the region sweeps a cursor instead of filling the box.
type RegionDecl struct {
	Start       Quantity `yaml:"start"`
	End         Quantity `yaml:"end"`
	View        string   `yaml:"view,omitempty"`
	Region      string   `yaml:"region"`
	CursorStart string   `yaml:"cursorStart,omitempty"`
	CursorEnd   string   `yaml:"cursorEnd,omitempty"`
}

// EventDecl is one sounding note of a data performance. Notes give either a
// frequency in Hz or a MIDI key number; frequency wins when both appear.
type EventDecl struct {
	Start     Quantity `yaml:"start"`
	Duration  Quantity `yaml:"duration"`
	Frequency float64  `yaml:"frequency,omitempty"`
	Pitch     int      `yaml:"pitch,omitempty"`
	Dynamics  int      `yaml:"dynamics,omitempty"`
	View      string   `yaml:"view,omitempty"`
	Graphics  []string `yaml:"graphics,omitempty"`
}

// Hz resolves the event to a frequency, converting an equal-tempered MIDI key
// number when no frequency is declared.
func (e EventDecl) Hz() float64 {
	if e.Frequency > 0 {
		return e.Frequency
	}
	return 440 * math.Pow(2, (float64(e.Pitch)-69)/12)
}

// Validate checks the document for structural problems before any scheduling
// work begins.
func (d *Document) Validate() error {
	if len(d.Views) == 0 {
		return fmt.Errorf("score %q declares no views", d.Title)
	}
	seen := make(map[string]bool)
	for _, v := range d.Views {
		if v.Name == "" {
			return fmt.Errorf("score %q has a view without a name", d.Title)
		}
		if seen[v.Name] {
			return fmt.Errorf("score %q declares the view %q twice", d.Title, v.Name)
		}
		seen[v.Name] = true
	}

	perfs := make(map[string]bool)
	for _, p := range d.Performances {
		if p.Name == "" {
			return fmt.Errorf("score %q has a performance without a name", d.Title)
		}
		if perfs[p.Name] {
			return fmt.Errorf("score %q declares the performance %q twice", d.Title, p.Name)
		}
		perfs[p.Name] = true

		switch p.NormalizedKind() {
		case KindData:
			if p.Media != "" {
				return fmt.Errorf("data performance %q cannot carry media", p.Name)
			}
		case KindAudio:
			if p.Media == "" {
				return fmt.Errorf("audio performance %q names no media asset", p.Name)
			}
			if len(p.Events) > 0 {
				return fmt.Errorf("audio performance %q cannot carry events", p.Name)
			}
		default:
			return fmt.Errorf("performance %q has unknown kind %q", p.Name, p.Kind)
		}

		for i, r := range p.Regions {
			if r.Region == "" {
				return fmt.Errorf("performance %q region %d references no element", p.Name, i)
			}
			if (r.CursorStart == "") != (r.CursorEnd == "") {
				return fmt.Errorf("performance %q region %d must give both cursor edges or neither", p.Name, i)
			}
		}
		for i, e := range p.Events {
			if e.Duration == "" {
				return fmt.Errorf("performance %q event %d has no duration", p.Name, i)
			}
			if e.Frequency <= 0 && e.Pitch <= 0 {
				return fmt.Errorf("performance %q event %d has neither frequency nor pitch", p.Name, i)
			}
			if e.Pitch < 0 || e.Pitch > 127 {
				return fmt.Errorf("performance %q event %d pitch %d out of range", p.Name, i, e.Pitch)
			}
			if e.Dynamics < 0 || e.Dynamics > 127 {
				return fmt.Errorf("performance %q event %d dynamics %d out of range", p.Name, i, e.Dynamics)
			}
		}
	}
	return nil
}

// DefaultView returns the view a declaration with no view name lands on.
func (d *Document) DefaultView() string {
	if len(d.Views) == 0 {
		return ""
	}
	return d.Views[0].Name
}
