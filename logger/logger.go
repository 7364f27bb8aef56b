package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once    sync.Once
	project *logrus.Entry
)

// GetProjectLogger returns the shared logger for the viewer. The level can be
// overridden with the GMNX_LOG_LEVEL environment variable.
func GetProjectLogger() *logrus.Entry {
	once.Do(func() {
		base := logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
		if lvl, err := logrus.ParseLevel(os.Getenv("GMNX_LOG_LEVEL")); err == nil {
			base.SetLevel(lvl)
		}
		project = base.WithField("name", "gmnx-viewer")
	})
	return project
}
