package synth

import "time"

// Synthesizer is the tone-trigger capability a data performance sounds its
// events through. Implementations are responsible for their own voice
// management; triggers never block.
type Synthesizer interface {
	// Trigger sounds a tone of the given frequency for the given duration.
	// at is the timeline offset the trigger was scheduled for; velocity is
	// the note loudness in 0..1.
	Trigger(freq float64, duration time.Duration, at time.Duration, velocity float64)

	// ReleaseAll silences every voice immediately.
	ReleaseAll()
}

// Nop is a Synthesizer that discards every trigger. It keeps playback usable
// on machines without an audio device.
type Nop struct{}

func (Nop) Trigger(freq float64, duration time.Duration, at time.Duration, velocity float64) {}

func (Nop) ReleaseAll() {}
