// Package watcher handles file system watching for the daemon.
package watcher

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/easycue/easycue/internal/config"
)

// EventType represents the type of file system event.
type EventType int

// Event types for file system changes.
const (
	EventSettingsChanged EventType = iota
	EventSettingsRemoved
)

func (t EventType) String() string {
	switch t {
	case EventSettingsChanged:
		return "settings-changed"
	case EventSettingsRemoved:
		return "settings-removed"
	default:
		return "unknown"
	}
}

// DefaultDebounce is how long the watcher waits for writes to a path to settle.
const DefaultDebounce = 100 * time.Millisecond

// Event represents a file system change event.
type Event struct {
	Type EventType
	Path string
}

// Watcher watches the global directory for changes to settings.yaml.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	dir        string
	delay      time.Duration
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
	pending    sync.WaitGroup // processEvents plus armed debounce timers
}

// New creates a watcher for dir. An empty dir means the global ~/.easycue directory.
func New(dir string) (*Watcher, error) {
	if dir == "" {
		var err error
		dir, err = config.GlobalDir()
		if err != nil {
			return nil, err
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:  fsWatcher,
		dir:        dir,
		delay:      DefaultDebounce,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		debounce:   make(map[string]*time.Timer),
	}

	return w, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start starts the watcher. The directory is watched rather than the file,
// so atomic replace-by-rename writes are seen.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}
	log.Printf("[watcher] Watching %s", filepath.Join(w.dir, config.SettingsFileName))

	w.pending.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops the watcher and closes the events channel once no pending
// event can still be sent on it.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()

		w.debounceMu.Lock()
		for path, timer := range w.debounce {
			if timer.Stop() {
				w.pending.Done()
			}
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()

		w.pending.Wait()
		close(w.eventsChan)
	})
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	defer w.pending.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] Error: %v", err)
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != config.SettingsFileName {
		return
	}

	// Atomic writes (write tmp, rename to target) show up as Create or
	// Rename on the target.
	var eventType EventType
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		eventType = EventSettingsChanged
	case event.Op&fsnotify.Remove != 0:
		eventType = EventSettingsRemoved
	case event.Op&fsnotify.Rename != 0:
		eventType = EventSettingsChanged
	default:
		return
	}

	w.debounceEvent(event.Name, func() {
		if eventType == EventSettingsChanged && !config.FileExists(event.Name) {
			eventType = EventSettingsRemoved
		}
		log.Printf("[watcher] %s: %s", eventType, event.Name)
		select {
		case w.eventsChan <- Event{Type: eventType, Path: event.Name}:
		case <-w.done:
		}
	})
}

// debounceEvent debounces events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if timer, ok := w.debounce[path]; ok && timer.Stop() {
		w.pending.Done()
	}

	w.pending.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.delay, func() {
		defer w.pending.Done()
		w.debounceMu.Lock()
		if w.debounce[path] == timer {
			delete(w.debounce, path)
		}
		w.debounceMu.Unlock()
		fn()
	})
	w.debounce[path] = timer
}
