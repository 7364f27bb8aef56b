// Package export renders performances to external formats.
package export

import (
	"fmt"
	"math"

	"github.com/gruntwork-io/go-commons/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/exp/slices"

	"github.com/joeberkovitz/gmnx-viewer/performance"
)

// ticksPerQuarter is the resolution of exported files.
const ticksPerQuarter = 960

// midiChannel is the channel every exported note lands on.
const midiChannel = 0

type noteEdge struct {
	tick int64
	off  bool
	key  uint8
	vel  uint8
}

// StandardMIDI renders a prepared data performance to a single-track
// standard MIDI file at the performance tempo.
func StandardMIDI(p *performance.Performance) (*smf.SMF, error) {
	if p.Kind() != performance.KindData {
		return nil, fmt.Errorf("performance %q is %s, only data performances export to MIDI", p.Name(), p.Kind())
	}
	if !p.Prepared() {
		return nil, fmt.Errorf("performance %q must be prepared before export", p.Name())
	}

	var edges []noteEdge
	for _, ev := range p.Events() {
		key := keyFor(ev.Frequency)
		edges = append(edges,
			noteEdge{tick: tickFor(ev.Start), key: key, vel: velocityFor(ev.Dynamics)},
			noteEdge{tick: tickFor(ev.Start + ev.Duration), off: true, key: key},
		)
	}
	// note-offs sort ahead of note-ons on the same tick so a repeated pitch
	// retriggers instead of sticking
	slices.SortStableFunc(edges, func(a, b noteEdge) bool {
		if a.tick != b.tick {
			return a.tick < b.tick
		}
		return a.off && !b.off
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(240/p.UnitSeconds()))
	var last int64
	for _, e := range edges {
		delta := uint32(e.tick - last)
		last = e.tick
		if e.off {
			tr.Add(delta, midi.NoteOff(midiChannel, e.key))
		} else {
			tr.Add(delta, midi.NoteOn(midiChannel, e.key, e.vel))
		}
	}
	tr.Close(0)
	s.Add(tr)
	return s, nil
}

// WriteFile renders the performance and writes the MIDI file to path.
func WriteFile(p *performance.Performance, path string) error {
	s, err := StandardMIDI(p)
	if err != nil {
		return err
	}
	if err := s.WriteFile(path); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// tickFor converts whole-note units to MIDI ticks.
func tickFor(units float64) int64 {
	return int64(math.Round(units * 4 * ticksPerQuarter))
}

// keyFor maps a frequency in Hz to the nearest MIDI key, A440 = 69.
func keyFor(freq float64) uint8 {
	k := math.Round(69 + 12*math.Log2(freq/440))
	if k < 0 {
		k = 0
	}
	if k > 127 {
		k = 127
	}
	return uint8(k)
}

func velocityFor(dynamics int) uint8 {
	if dynamics <= 0 {
		dynamics = performance.DefaultDynamics
	}
	if dynamics > 127 {
		dynamics = 127
	}
	return uint8(dynamics)
}
