// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	applog "audioviz/internal/log"
)

// Watcher reloads the configuration whenever the backing file changes
// and delivers each valid result on Updates. Saves that fail to parse
// or validate are logged and skipped, so a half-written file never
// reaches the consumer.
type Watcher struct {
	path      string
	watcher   *fsnotify.Watcher
	updates   chan *Config
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher watches path for configuration changes. The parent
// directory is watched rather than the file itself so editor
// rename-and-replace saves keep delivering events.
func NewWatcher(path string) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config watcher: empty path")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		updates: make(chan *Config, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Updates delivers each successfully reloaded configuration. Only the
// newest pending update is kept when the consumer lags.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

func (w *Watcher) run() {
	target := filepath.Clean(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				applog.Warnf("Config: reload skipped: %v", err)
				continue
			}
			applog.Infof("Config: reloaded from %s", w.path)

			// Replace any unconsumed update with the newest one. The
			// run goroutine is the only sender, so the buffer always
			// has room after the drain.
			select {
			case <-w.updates:
			default:
			}
			w.updates <- cfg

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			applog.Errorf("Config: watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

// Close stops watching. Idempotent.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
