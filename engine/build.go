package engine

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/joeberkovitz/gmnx-viewer/config"
	"github.com/joeberkovitz/gmnx-viewer/decoration"
	"github.com/joeberkovitz/gmnx-viewer/media"
	"github.com/joeberkovitz/gmnx-viewer/performance"
	"github.com/joeberkovitz/gmnx-viewer/rhythm"
	"github.com/joeberkovitz/gmnx-viewer/score"
	"github.com/joeberkovitz/gmnx-viewer/surface"
)

// defaultTempoValue is the note value a tempo counts when the score names
// none. Plain bpm means quarter notes per minute.
const defaultTempoValue = "/4"

// Load reads, parses and builds the score at path. Media paths in the score
// resolve relative to the score file.
func (e *Engine) Load(path string) error {
	doc, err := score.Load(path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.path = path
	e.baseDir = filepath.Dir(path)
	e.mu.Unlock()
	return e.Build(doc)
}

// Reload builds the last loaded score file again.
func (e *Engine) Reload() error {
	e.mu.Lock()
	path := e.path
	e.mu.Unlock()
	if path == "" {
		return fmt.Errorf("the engine has no score file to reload")
	}
	return e.Load(path)
}

// Build translates the document into surfaces and prepared performances.
// The previous build keeps running until the new one is ready, and on any
// error the engine is left exactly as it was.
func (e *Engine) Build(doc *score.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	buildID := uuid.NewString()
	log := e.log.WithField("build_id", buildID)

	views := make(map[string]surface.Surface, len(doc.Views))
	for _, v := range doc.Views {
		m := surface.NewMemory(v.Name)
		for _, el := range v.Elements {
			box := surface.Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}
			if _, err := m.AddElement(el.ID, surface.KindRect, box); err != nil {
				return fmt.Errorf("view %q: %w", v.Name, err)
			}
		}
		views[v.Name] = m
	}

	// decode every audio asset up front so one bad file fails the whole build
	clips := make([]*media.Clip, len(doc.Performances))
	var g errgroup.Group
	for i, decl := range doc.Performances {
		if decl.NormalizedKind() != score.KindAudio {
			continue
		}
		i, path := i, e.resolveMediaLocked(decl.Media)
		g.Go(func() error {
			clip, err := media.Decode(path)
			if err != nil {
				return err
			}
			clips[i] = clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	style := e.style
	if doc.Styles != nil {
		s, err := decoration.StyleFromConfig(mergeStyle(e.cfg.Styles, doc.Styles))
		if err != nil {
			return fmt.Errorf("score styles: %w", err)
		}
		style = s
	}

	deps := performance.Deps{
		Transport:   e.transport,
		Views:       views,
		Clock:       e.clock,
		Synth:       e.synth,
		Player:      e.player,
		Style:       style,
		LeadIn:      e.cfg.LeadIn,
		CursorPoll:  e.cfg.CursorPoll,
		DefaultView: doc.DefaultView(),
	}

	perfs := make([]*performance.Performance, 0, len(doc.Performances))
	abort := func(err error) error {
		for _, p := range perfs {
			p.Release()
		}
		return err
	}
	for i, decl := range doc.Performances {
		p, err := buildPerformance(decl, clips[i], deps)
		if err != nil {
			return abort(fmt.Errorf("performance %q: %w", decl.Name, err))
		}
		if err := p.Prepare(); err != nil {
			return abort(err)
		}
		perfs = append(perfs, p)
	}

	// the new build is live, retire the old one
	for _, p := range e.perfs {
		p.Release()
	}
	e.buildID = buildID
	e.doc = doc
	e.views = views
	e.perfs = perfs
	log.WithFields(logrus.Fields{
		"title":        doc.Title,
		"views":        len(views),
		"performances": len(perfs),
	}).Info("score built")
	return nil
}

func (e *Engine) resolveMediaLocked(path string) string {
	if e.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.baseDir, path)
}

func buildPerformance(decl score.PerformanceDecl, clip *media.Clip, deps performance.Deps) (*performance.Performance, error) {
	tempos, err := buildTempos(decl.Tempos)
	if err != nil {
		return nil, err
	}
	regions, err := buildRegions(decl.Regions)
	if err != nil {
		return nil, err
	}

	if decl.NormalizedKind() == score.KindAudio {
		return performance.NewAudio(decl.Name, deps, tempos, regions, clip), nil
	}
	events, err := buildEvents(decl.Events)
	if err != nil {
		return nil, err
	}
	return performance.NewData(decl.Name, deps, tempos, regions, events), nil
}

func buildTempos(decls []score.TempoDecl) ([]performance.Tempo, error) {
	tempos := make([]performance.Tempo, 0, len(decls))
	for i, d := range decls {
		start := 0.0
		if d.Start != "" {
			s, err := d.Start.Units()
			if err != nil {
				return nil, fmt.Errorf("tempo %d start: %w", i, err)
			}
			start = s
		}
		value := d.Value
		if value == "" {
			value = defaultTempoValue
		}
		beat, err := rhythm.ParseNoteValueQuantity(value)
		if err != nil {
			return nil, fmt.Errorf("tempo %d value: %w", i, err)
		}
		tempos = append(tempos, performance.Tempo{Start: start, BPM: d.BPM, Beat: beat})
	}
	return tempos, nil
}

func buildRegions(decls []score.RegionDecl) ([]performance.Region, error) {
	regions := make([]performance.Region, 0, len(decls))
	for i, d := range decls {
		start, err := d.Start.Units()
		if err != nil {
			return nil, fmt.Errorf("region %d start: %w", i, err)
		}
		end, err := d.End.Units()
		if err != nil {
			return nil, fmt.Errorf("region %d end: %w", i, err)
		}
		regions = append(regions, performance.Region{
			Start:       start,
			End:         end,
			View:        d.View,
			Element:     d.Region,
			CursorStart: d.CursorStart,
			CursorEnd:   d.CursorEnd,
		})
	}
	return regions, nil
}

// mergeStyle lays the score's style overrides over the configured defaults.
func mergeStyle(base config.StyleConfig, d *score.StyleDecl) config.StyleConfig {
	if d.RegionFill != "" {
		base.RegionFill = d.RegionFill
	}
	if d.GraphicFill != "" {
		base.GraphicFill = d.GraphicFill
	}
	if d.CursorStroke != "" {
		base.CursorStroke = d.CursorStroke
	}
	if d.CursorWidth > 0 {
		base.CursorWidth = d.CursorWidth
	}
	if d.Opacity > 0 {
		base.Opacity = d.Opacity
	}
	return base
}

func buildEvents(decls []score.EventDecl) ([]performance.Event, error) {
	events := make([]performance.Event, 0, len(decls))
	for i, d := range decls {
		start, err := d.Start.Units()
		if err != nil {
			return nil, fmt.Errorf("event %d start: %w", i, err)
		}
		duration, err := d.Duration.Units()
		if err != nil {
			return nil, fmt.Errorf("event %d duration: %w", i, err)
		}
		events = append(events, performance.Event{
			Start:     start,
			Duration:  duration,
			Frequency: d.Hz(),
			Dynamics:  d.Dynamics,
			View:      d.View,
			Graphics:  d.Graphics,
		})
	}
	return events, nil
}
