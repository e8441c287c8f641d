package quads

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// configDebounce is how long the file must stay quiet before it is reloaded.
// Editors often write a file in several steps.
const configDebounce = 100 * time.Millisecond

// ConfigWatcher reloads a RunConfig file whenever it changes on disk. The
// directory is watched rather than the file so editors that replace the file
// on save keep working.
//
// Configs receives every successfully parsed version and Errors receives
// watch and parse failures. Both are closed by Close. Receive from them on
// the frame loop goroutine; nothing else touches the stage from here.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	Configs chan RunConfig
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// WatchConfig starts watching path.
func WatchConfig(path string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	cw := &ConfigWatcher{
		path:    abs,
		watcher: w,
		Configs: make(chan RunConfig, 4),
		Errors:  make(chan error, 4),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

// Path returns the absolute path being watched.
func (cw *ConfigWatcher) Path() string { return cw.path }

// Close stops the watcher and closes both channels.
func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.closeCh)
		err = cw.watcher.Close()
		<-cw.done
		close(cw.Configs)
		close(cw.Errors)
	})
	return err
}

func (cw *ConfigWatcher) run() {
	defer close(cw.done)
	timer := time.NewTimer(configDebounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			timer.Reset(configDebounce)
		case <-timer.C:
			cfg, err := cw.load()
			if err != nil {
				cw.send(nil, err)
				continue
			}
			cw.send(&cfg, nil)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.send(nil, err)
		case <-cw.closeCh:
			return
		}
	}
}

// load reads the watched file. An empty file is reported as ErrEmptyConfig.
func (cw *ConfigWatcher) load() (RunConfig, error) {
	data, err := os.ReadFile(cw.path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("quads: load config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return RunConfig{}, fmt.Errorf("%w (%s)", ErrEmptyConfig, cw.path)
	}
	cfg, err := ParseRunConfig(data)
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w (%s)", err, cw.path)
	}
	return cfg, nil
}

// send delivers without blocking past Close.
func (cw *ConfigWatcher) send(cfg *RunConfig, err error) {
	if cfg != nil {
		select {
		case cw.Configs <- *cfg:
		case <-cw.closeCh:
		}
		return
	}
	select {
	case cw.Errors <- err:
	case <-cw.closeCh:
	}
}
