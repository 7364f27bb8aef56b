package performance

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/joeberkovitz/gmnx-viewer/decoration"
	"github.com/joeberkovitz/gmnx-viewer/surface"
)

// Prepare resolves the tempo, builds the decorations and registers every
// action on the transport. It runs exactly once; preparing an already
// prepared performance has no effect. On error nothing is registered and
// Prepare may be retried.
func (p *Performance) Prepare() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.scheduled {
		p.log.Debug("already prepared")
		return nil
	}
	if p.deps.Transport == nil {
		return fmt.Errorf("performance %q: no transport", p.name)
	}
	for i, tm := range p.tempos {
		if tm.BPM <= 0 {
			return fmt.Errorf("performance %q: tempo %d has no bpm", p.name, i)
		}
		if tm.Beat.Num <= 0 || tm.Beat.Den <= 0 {
			return fmt.Errorf("performance %q: tempo %d has no beat value", p.name, i)
		}
	}
	p.unitSeconds = p.resolveUnitSecondsLocked()

	actions, decos, err := p.buildLocked()
	if err != nil {
		return err
	}

	for _, id := range p.callbackIDs {
		p.deps.Transport.Cancel(id)
	}
	p.callbackIDs = p.callbackIDs[:0]
	for i := range actions {
		a := actions[i]
		p.callbackIDs = append(p.callbackIDs, p.deps.Transport.Schedule(a.fire, a.At))
	}
	p.actions = actions
	p.decorations = decos
	p.scheduled = true

	p.log.WithFields(logrus.Fields{
		"actions":      len(actions),
		"decorations":  len(decos),
		"unit_seconds": p.unitSeconds,
		"horizon":      p.horizon,
	}).Info("performance prepared")
	return nil
}

// resolveUnitSecondsLocked picks the governing tempo: the entry with the
// earliest start. With no entries one whole note lasts one second.
func (p *Performance) resolveUnitSecondsLocked() float64 {
	if len(p.tempos) == 0 {
		p.log.Debug("no tempo entries, using one second per whole note")
		return 1.0
	}
	best := p.tempos[0]
	for _, tm := range p.tempos[1:] {
		if tm.Start < best.Start {
			best = tm
		}
	}
	if len(p.tempos) > 1 {
		p.log.WithField("tempos", len(p.tempos)).Debug("multiple tempo entries, earliest start governs")
	}
	return best.UnitSeconds()
}

func (p *Performance) buildLocked() ([]Action, []*decoration.Decoration, error) {
	secs := func(units float64) time.Duration {
		return time.Duration(units * p.unitSeconds * float64(time.Second))
	}

	var actions []Action
	var decos []*decoration.Decoration
	horizon := time.Duration(0)

	if p.kind == KindData {
		for i, ev := range p.events {
			if ev.Duration <= 0 {
				return nil, nil, fmt.Errorf("performance %q: event %d has no duration", p.name, i)
			}
			if ev.Frequency <= 0 {
				return nil, nil, fmt.Errorf("performance %q: event %d has no frequency", p.name, i)
			}
			at := secs(ev.Start)
			end := secs(ev.Start + ev.Duration)
			actions = append(actions, p.toneAction(ev, at, end-at))
			if end > horizon {
				horizon = end
			}

			for _, gid := range ev.Graphics {
				surf, err := p.viewLocked(ev.View)
				if err != nil {
					return nil, nil, fmt.Errorf("performance %q: event %d: %w", p.name, i, err)
				}
				d, err := decoration.NewGraphic(p.nextDecoID, surf, gid, ev.Start, ev.Start+ev.Duration, p.deps.Style)
				if err != nil {
					return nil, nil, fmt.Errorf("performance %q: event %d: %w", p.name, i, err)
				}
				p.nextDecoID++
				decos = append(decos, d)
				actions = append(actions, p.showAction(d, at), p.hideAction(d, end))
			}
		}
	} else {
		if p.clip == nil {
			return nil, nil, fmt.Errorf("performance %q: no media clip", p.name)
		}
		actions = append(actions, Action{
			At:     0,
			Kind:   ActionMedia,
			Target: p.clip.Source(),
			fire:   p.fireMedia,
		})
		if d := p.clip.Duration(); d > horizon {
			horizon = d
		}
	}

	for i, r := range p.regions {
		surf, err := p.viewLocked(r.View)
		if err != nil {
			return nil, nil, fmt.Errorf("performance %q: region %d: %w", p.name, i, err)
		}
		var d *decoration.Decoration
		if r.CursorStart != "" || r.CursorEnd != "" {
			if r.CursorStart == "" || r.CursorEnd == "" {
				return nil, nil, fmt.Errorf("performance %q: region %d must give both cursor edges or neither", p.name, i)
			}
			d, err = decoration.NewCursor(p.nextDecoID, surf, r.Element, r.Start, r.End, r.CursorStart, r.CursorEnd, p.deps.Style, decoration.CursorConfig{
				Clock:    p.deps.Clock,
				Poll:     p.deps.CursorPoll,
				Easing:   p.deps.Easing,
				Position: p.position,
			})
		} else {
			d, err = decoration.NewRegion(p.nextDecoID, surf, r.Element, r.Start, r.End, p.deps.Style)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("performance %q: region %d: %w", p.name, i, err)
		}
		p.nextDecoID++
		decos = append(decos, d)
		start, end := secs(r.Start), secs(r.End)
		actions = append(actions, p.showAction(d, start), p.hideAction(d, end))
		if end > horizon {
			horizon = end
		}
	}

	slices.SortStableFunc(actions, func(a, b Action) bool {
		return a.At < b.At
	})
	p.horizon = horizon
	return actions, decos, nil
}

func (p *Performance) viewLocked(name string) (surface.Surface, error) {
	if name == "" {
		name = p.deps.DefaultView
	}
	if s, ok := p.deps.Views[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
}

func (p *Performance) toneAction(ev Event, at, dur time.Duration) Action {
	freq := ev.Frequency
	dyn := ev.Dynamics
	if dyn == 0 {
		dyn = DefaultDynamics
	}
	vel := float64(dyn) / 127
	return Action{
		At:     at,
		Kind:   ActionTone,
		Target: fmt.Sprintf("%g Hz", freq),
		fire: func(fireAt time.Duration) {
			p.mu.Lock()
			playing := p.playing
			p.mu.Unlock()
			if !playing || p.deps.Synth == nil {
				return
			}
			p.deps.Synth.Trigger(freq, dur, fireAt, vel)
		},
	}
}

func (p *Performance) showAction(d *decoration.Decoration, at time.Duration) Action {
	return Action{
		At:     at,
		Kind:   ActionShow,
		Target: d.TargetID(),
		fire: func(time.Duration) {
			p.mu.Lock()
			if !p.playing {
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			d.Show()

			// a stop can land while the show is in flight
			p.mu.Lock()
			if p.playing {
				p.active[d.ID()] = d
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			d.Hide()
		},
	}
}

func (p *Performance) hideAction(d *decoration.Decoration, at time.Duration) Action {
	return Action{
		At:     at,
		Kind:   ActionHide,
		Target: d.TargetID(),
		fire: func(time.Duration) {
			p.mu.Lock()
			delete(p.active, d.ID())
			p.mu.Unlock()
			d.Hide()
		},
	}
}
