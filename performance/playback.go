package performance

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joeberkovitz/gmnx-viewer/decoration"
)

// Play restarts the performance from the top: any running playback is
// stopped, the transport rewinds to zero and starts after the lead-in.
func (p *Performance) Play() error {
	p.mu.Lock()
	if !p.scheduled {
		p.mu.Unlock()
		return fmt.Errorf("performance %q: play before prepare", p.name)
	}
	p.mu.Unlock()

	p.Stop()
	p.deps.Transport.Reset(0)

	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
	p.deps.Transport.Start(p.deps.LeadIn)

	p.log.WithFields(logrus.Fields{
		"lead":    p.deps.LeadIn,
		"horizon": p.Horizon(),
	}).Info("performance playing")
	return nil
}

// Stop freezes the transport, hides every displayed decoration and silences
// the audio path. Stopping a stopped performance has no effect.
func (p *Performance) Stop() {
	p.mu.Lock()
	wasPlaying := p.playing
	p.playing = false
	active := make([]*decoration.Decoration, 0, len(p.active))
	for _, d := range p.active {
		active = append(active, d)
	}
	p.active = make(map[int64]*decoration.Decoration)
	handle := p.handle
	p.handle = nil
	p.mu.Unlock()

	p.deps.Transport.Stop()
	for _, d := range active {
		d.Hide()
	}
	if p.kind == KindData {
		if p.deps.Synth != nil {
			p.deps.Synth.ReleaseAll()
		}
	} else if handle != nil {
		handle.Stop()
	}

	if wasPlaying {
		p.log.WithField("hidden", len(active)).Info("performance stopped")
	}
}

// Release stops the performance and withdraws its registrations from the
// transport. After a release the performance can be prepared again.
func (p *Performance) Release() {
	p.Stop()

	p.mu.Lock()
	ids := p.callbackIDs
	p.callbackIDs = nil
	p.scheduled = false
	p.actions = nil
	p.decorations = nil
	p.mu.Unlock()

	for _, id := range ids {
		p.deps.Transport.Cancel(id)
	}
}

// position reports the transport position in whole-note units. It feeds the
// cursor interpolation loop.
func (p *Performance) position() float64 {
	p.mu.Lock()
	us := p.unitSeconds
	p.mu.Unlock()
	if us <= 0 {
		return 0
	}
	return p.deps.Transport.Elapsed().Seconds() / us
}

func (p *Performance) fireMedia(at time.Duration) {
	p.mu.Lock()
	playing := p.playing
	p.mu.Unlock()
	if !playing || p.deps.Player == nil {
		return
	}

	h, err := p.deps.Player.Play(p.clip, at)
	if err != nil {
		p.log.WithError(err).Error("cannot start media playback")
		return
	}

	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		h.Stop()
		return
	}
	p.handle = h
	p.mu.Unlock()
}
