package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/opendsim/kernel/pkg/logger"
)

// Watcher republishes a freshly parsed Scenario every time its backing file
// changes on disk, for picking up scenario edits between runs. Nothing in
// this module calls WatchScenario (the internal/simd control plane parses
// each run's scenario once); a running Engine owns an immutable Scenario
// snapshot taken at run start.
type Watcher struct {
	path   string
	fsw    *fsnotify.Watcher
	scenCh chan *Scenario
	errCh  chan error
	done   chan struct{}
}

// WatchScenario starts watching path for writes and re-parses it on every
// change, publishing successfully parsed scenarios on Scenarios() and parse
// failures on Errors(). Call Close to stop watching.
func WatchScenario(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		path:   path,
		fsw:    fsw,
		scenCh: make(chan *Scenario, 1),
		errCh:  make(chan error, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			scenario, err := LoadScenario(w.path)
			if err != nil {
				logger.Warn("scenario reload failed", "path", w.path, "error", err)
				select {
				case w.errCh <- err:
				default:
				}
				continue
			}
			logger.Info("scenario reloaded", "path", w.path, "schema_version", scenario.SchemaVersion)
			select {
			case w.scenCh <- scenario:
			default:
				<-w.scenCh
				w.scenCh <- scenario
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errCh <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// Scenarios returns the channel of successfully reloaded scenarios.
func (w *Watcher) Scenarios() <-chan *Scenario { return w.scenCh }

// Errors returns the channel of reload/parse failures.
func (w *Watcher) Errors() <-chan error { return w.errCh }

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
