package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"

	"github.com/joeberkovitz/gmnx-viewer/logger"
)

// Clip is a fully decoded, memory-resident audio asset. Decoding up front
// keeps playback start times exact: no disk reads happen on the timeline.
type Clip struct {
	source string
	buf    *beep.Buffer
}

// Decode reads a wav or mp3 asset into memory.
func Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("media %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("media %s: %w", path, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)

	clip := &Clip{source: path, buf: buf}
	logger.GetProjectLogger().WithFields(logrus.Fields{
		"path": path, "duration": clip.Duration(), "rate": format.SampleRate,
	}).Debug("media decoded")
	return clip, nil
}

// Source returns the path the clip was decoded from.
func (c *Clip) Source() string {
	return c.source
}

// Duration returns the clip length.
func (c *Clip) Duration() time.Duration {
	return c.buf.Format().SampleRate.D(c.buf.Len())
}

// Format returns the decoded sample format.
func (c *Clip) Format() beep.Format {
	return c.buf.Format()
}

// Streamer returns a fresh streamer over the whole clip.
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buf.Streamer(0, c.buf.Len())
}
