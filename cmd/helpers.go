package cmd

import (
	"github.com/faiface/beep"

	"github.com/joeberkovitz/gmnx-viewer/config"
	"github.com/joeberkovitz/gmnx-viewer/engine"
	"github.com/joeberkovitz/gmnx-viewer/logger"
	"github.com/joeberkovitz/gmnx-viewer/media"
	"github.com/joeberkovitz/gmnx-viewer/score"
	"github.com/joeberkovitz/gmnx-viewer/synth"
	"github.com/joeberkovitz/gmnx-viewer/transport"
)

// newEngine wires a real-time engine. With noAudio the speaker never opens
// and playback runs silent.
func newEngine(cfg config.ViewerConfig, noAudio bool) (*engine.Engine, error) {
	tl := transport.NewTimeline(nil, cfg.TickInterval)
	if noAudio {
		return engine.NewEngine(cfg, tl, nil, nil, nil), nil
	}
	if err := synth.StartSpeaker(cfg.SampleRate, cfg.SpeakerBuffer); err != nil {
		return nil, err
	}
	sr := beep.SampleRate(cfg.SampleRate)
	return engine.NewEngine(cfg, tl, synth.NewTonePool(sr), media.NewSpeakerPlayer(sr), nil), nil
}

// buildFromArgs loads the score named on the command line, or the built-in
// demo when none is given.
func buildFromArgs(eng *engine.Engine, args []string, demo bool) error {
	if demo || len(args) == 0 {
		if len(args) == 0 && !demo {
			logger.GetProjectLogger().Info("no score file given, using the built-in demo")
		}
		return eng.Build(score.Demo())
	}
	return eng.Load(args[0])
}
