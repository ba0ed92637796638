package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/model"
)

// DefaultFixtureDebounce coalesces bursts of file events from editors that
// write in several steps.
const DefaultFixtureDebounce = 250 * time.Millisecond

// ErrAlreadyWatching is returned by Watch when a watch is active.
var ErrAlreadyWatching = errors.New("fixture already being watched")

// FixtureSource serves records from a local JSON file, with optional live
// reload. It satisfies the same page-fetch shape as the HTTP client so the
// caching layer cannot tell them apart.
type FixtureSource struct {
	path     string
	debounce time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	onChange func()
}

// NewFixtureSource builds a source reading path.
func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{path: path, debounce: DefaultFixtureDebounce}
}

// Path returns the fixture path.
func (s *FixtureSource) Path() string { return s.path }

// Load reads and decodes the whole fixture file.
func (s *FixtureSource) Load() ([]model.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeRecords(f)
}

// FetchPage slices the fixture like a paginated feed would.
func (s *FixtureSource) FetchPage(_ context.Context, offset, limit int) ([]model.Record, error) {
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	if offset >= len(records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end], nil
}

// Watch invokes onChange (debounced) whenever the fixture file is written.
// Watching the containing directory is more reliable for atomic writes.
func (s *FixtureSource) Watch(onChange func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return ErrAlreadyWatching
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	s.onChange = onChange
	go s.watch(w)
	return nil
}

// Stop ends the watch.
func (s *FixtureSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *FixtureSource) watch(w *fsnotify.Watcher) {
	target := filepath.Base(s.path)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.trigger()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			debug.Log("fixture watch: %v", err)
		}
	}
}

// trigger schedules the change callback, resetting any pending one so a
// burst of events collapses into a single reload.
func (s *FixtureSource) trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	onChange := s.onChange
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		active := s.watcher != nil
		s.mu.Unlock()
		if active && onChange != nil {
			onChange()
		}
	})
}
