package config

import "time"

// ViewerConfig represents options that configure the global behavior of the
// viewer: scheduling cadences, playback lead-in and default decoration
// styling.
type ViewerConfig struct {
	// TickInterval is the dispatch resolution of the playback timeline.
	TickInterval time.Duration

	// LeadIn delays the start of the timeline so the first events are not
	// clipped while the audio path spins up.
	LeadIn time.Duration

	// CursorPoll is the period of the cursor interpolation loop.
	CursorPoll time.Duration

	// SampleRate drives the synthesizer and media playback, in Hz.
	SampleRate int

	// SpeakerBuffer sizes the speaker buffer.
	SpeakerBuffer time.Duration

	// OSCAddr is the UDP listen address for remote control.
	OSCAddr string

	// HTTPAddr is the listen address of the HTTP control surface.
	HTTPAddr string

	// Styles is the default decoration styling.
	Styles StyleConfig
}

// StyleConfig holds the paint attributes applied to decorations that do not
// override them. Colors are hex strings.
type StyleConfig struct {
	RegionFill   string
	GraphicFill  string
	CursorStroke string
	CursorWidth  float64
	Opacity      float64
}

// Create a new ViewerConfig object with reasonable defaults for real usage
func NewViewerConfig() (ViewerConfig, error) {
	// TODO - support overriding defaults from a config file
	return ViewerConfig{
		TickInterval:  5 * time.Millisecond,
		LeadIn:        200 * time.Millisecond,
		CursorPoll:    50 * time.Millisecond,
		SampleRate:    44100,
		SpeakerBuffer: 100 * time.Millisecond,
		OSCAddr:       "0.0.0.0:8765",
		HTTPAddr:      "127.0.0.1:8080",
		Styles: StyleConfig{
			RegionFill:   "#2E8B57",
			GraphicFill:  "#FFB02E",
			CursorStroke: "#D22B2B",
			CursorWidth:  2,
			Opacity:      0.35,
		},
	}, nil
}

// GetViewerConfig returns the current configuration
func GetViewerConfig() ViewerConfig {
	val, _ := NewViewerConfig()
	return val
}
