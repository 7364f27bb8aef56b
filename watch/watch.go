// Package watch reloads the score when its file changes on disk.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"

	"github.com/joeberkovitz/gmnx-viewer/logger"
)

// settle is how long the file must sit quiet before a reload fires. Editors
// save scores in bursts of filesystem events.
const settle = 100 * time.Millisecond

// Watcher reloads one score file when it changes.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *logrus.Entry
	closeCh chan struct{}
	once    sync.Once
}

// New watches the score at path and calls reload after each change settles.
// The containing directory is watched rather than the file itself, because
// editors typically replace the file on save.
func New(path string, reload func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.WithStackTrace(err)
	}

	w := &Watcher{
		path:    abs,
		watcher: fw,
		log:     logger.GetProjectLogger().WithField("path", abs),
		closeCh: make(chan struct{}),
	}
	go w.run(reload)
	w.log.Info("watching score file")
	return w, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run(reload func()) {
	debounced := debounce.New(settle)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.log.WithField("op", event.Op.String()).Debug("score file changed")
			debounced(reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("watch error: %v", err)
		case <-w.closeCh:
			return
		}
	}
}
