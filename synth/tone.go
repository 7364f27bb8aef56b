package synth

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"

	"github.com/joeberkovitz/gmnx-viewer/logger"
)

// TonePool synthesizes sine tones through the process speaker. Each trigger
// takes a fresh voice; voices retire themselves when their duration runs out
// or when ReleaseAll cuts them off.
type TonePool struct {
	sr beep.SampleRate

	mu     sync.Mutex
	voices map[int64]*beep.Ctrl
	nextID int64
}

// Create a new TonePool for the given speaker sample rate.
func NewTonePool(sr beep.SampleRate) *TonePool {
	return &TonePool{
		sr:     sr,
		voices: make(map[int64]*beep.Ctrl),
		nextID: 1,
	}
}

// Trigger sounds a sine tone of the given frequency and duration.
func (p *TonePool) Trigger(freq float64, duration time.Duration, at time.Duration, velocity float64) {
	log := logger.GetProjectLogger()

	// the generator needs at least two samples per cycle
	if freq < 1 || freq*2 > float64(p.sr) {
		log.WithField("freq", freq).Error("frequency outside the playable range")
		return
	}
	osc, err := generators.SinTone(p.sr, int(math.Round(freq)))
	if err != nil {
		log.WithError(err).WithField("freq", freq).Error("cannot build oscillator")
		return
	}

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.mu.Unlock()

	vol := &effects.Volume{
		Streamer: beep.Take(p.sr.N(duration), osc),
		Base:     2,
		Volume:   volumeFor(velocity),
		Silent:   velocity <= 0,
	}
	ctrl := &beep.Ctrl{Streamer: beep.Seq(vol, beep.Callback(func() {
		p.drop(id)
	}))}

	p.mu.Lock()
	p.voices[id] = ctrl
	p.mu.Unlock()

	log.WithFields(logrus.Fields{
		"at": at, "freq": freq, "duration": duration, "velocity": velocity,
	}).Debug("tone triggered")
	speaker.Play(ctrl)
}

// ReleaseAll silences every sounding voice.
func (p *TonePool) ReleaseAll() {
	p.mu.Lock()
	voices := p.voices
	p.voices = make(map[int64]*beep.Ctrl)
	p.mu.Unlock()

	if len(voices) == 0 {
		return
	}
	speaker.Lock()
	for _, ctrl := range voices {
		ctrl.Streamer = nil
	}
	speaker.Unlock()
	logger.GetProjectLogger().WithField("voices", len(voices)).Debug("released all voices")
}

// Voices returns the number of currently sounding voices.
func (p *TonePool) Voices() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.voices)
}

func (p *TonePool) drop(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.voices, id)
}

// volumeFor maps a 0..1 velocity onto the volume scale: full velocity plays
// at unity, half velocity at a quarter of the power.
func volumeFor(velocity float64) float64 {
	if velocity >= 1 {
		return 0
	}
	if velocity <= 0 {
		return -8
	}
	return (velocity - 1) * 4
}

// StartSpeaker initializes the process speaker. Call once before any tones
// or media are played.
func StartSpeaker(sampleRate int, buffer time.Duration) error {
	sr := beep.SampleRate(sampleRate)
	return speaker.Init(sr, sr.N(buffer))
}
