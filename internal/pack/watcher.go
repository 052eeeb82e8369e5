package pack

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"sys2/internal/logging"
)

// Watcher re-notifies when a pack's .sys2 files (or its index) change on
// disk, debouncing bursts of filesystem events. The host typically resets
// and re-learns the pack in response.
type Watcher struct {
	dir      string
	fsw      *fsnotify.Watcher
	onChange func()
	done     chan struct{}
}

// debounceWindow coalesces editor save bursts into one reload.
const debounceWindow = 250 * time.Millisecond

// Watch starts watching a pack directory. onChange runs on the watcher's
// goroutine; the callback must hand work back to the session's own thread.
func Watch(dir string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{dir: dir, fsw: fsw, onChange: onChange, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	log := logging.Get(logging.CategoryPack)
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			log.Debug("pack change: %s %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("pack watcher: %v", err)
		case <-w.done:
			return
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	return name == "index" || strings.HasSuffix(name, ".sys2")
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
