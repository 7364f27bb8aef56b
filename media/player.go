package media

import (
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"

	"github.com/joeberkovitz/gmnx-viewer/logger"
)

// Handle controls one playing clip.
type Handle interface {
	// Stop silences the clip immediately.
	Stop()
}

// Player starts clip playback. at is the timeline offset the playback was
// scheduled for and is carried for logging only.
type Player interface {
	Play(clip *Clip, at time.Duration) (Handle, error)
}

// SpeakerPlayer plays clips through the process speaker, resampling when the
// clip rate differs from the speaker rate.
type SpeakerPlayer struct {
	sr beep.SampleRate
}

// Create a new SpeakerPlayer for the given speaker sample rate.
func NewSpeakerPlayer(sr beep.SampleRate) *SpeakerPlayer {
	return &SpeakerPlayer{sr: sr}
}

// Play starts the clip from the top.
func (p *SpeakerPlayer) Play(clip *Clip, at time.Duration) (Handle, error) {
	var streamer beep.Streamer = clip.Streamer()
	if rate := clip.Format().SampleRate; rate != p.sr {
		streamer = beep.Resample(4, rate, p.sr, streamer)
	}
	ctrl := &beep.Ctrl{Streamer: streamer}
	speaker.Play(ctrl)

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"source": clip.Source(), "at": at, "duration": clip.Duration(),
	}).Debug("media playback started")
	return &speakerHandle{ctrl: ctrl}, nil
}

type speakerHandle struct {
	ctrl *beep.Ctrl
}

func (h *speakerHandle) Stop() {
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()
}

// NopPlayer discards playback requests. It keeps audio performances usable
// on machines without an audio device.
type NopPlayer struct{}

func (NopPlayer) Play(clip *Clip, at time.Duration) (Handle, error) {
	return nopHandle{}, nil
}

type nopHandle struct{}

func (nopHandle) Stop() {}
