package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/gridsurface"
)

// Store is the single source of truth for Settings.
//
// Every accepted change is normalized, persisted to the settings file and
// then delivered to subscribers. Setting a value equal to the current one is
// a no-op, which keeps the file watcher from echoing the store's own writes.
//
// Store is safe for concurrent use. Subscribers run on the goroutine that
// made the change and must not call back into Set, Update or Reset.
type Store struct {
	// writeMu serializes changes so subscribers observe them in order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	path    string
	current Settings
	nextID  int
	subs    map[int]func(Settings)
}

// NewStore creates a store holding initial. An empty path disables
// persistence.
func NewStore(path string, initial Settings) *Store {
	return &Store{
		path:    path,
		current: initial.Normalize(),
		subs:    make(map[int]func(Settings)),
	}
}

// Open loads the settings file at path and returns a store backed by it.
func Open(path string) (*Store, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewStore(path, s), nil
}

// Path returns the backing file path, or "" when not persisted.
func (st *Store) Path() string {
	return st.path
}

// Get returns the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Set replaces the current settings. It reports whether anything changed.
// A persistence error is returned after the change has been applied and
// delivered.
func (st *Store) Set(s Settings) (bool, error) {
	st.writeMu.Lock()
	defer st.writeMu.Unlock()
	return st.apply(s.Normalize(), true)
}

// Update applies fn to a copy of the current settings and stores the result.
func (st *Store) Update(fn func(*Settings)) (bool, error) {
	st.writeMu.Lock()
	defer st.writeMu.Unlock()
	next := st.Get()
	fn(&next)
	return st.apply(next.Normalize(), true)
}

// Reset restores Defaults.
func (st *Store) Reset() (bool, error) {
	return st.Set(Defaults())
}

// Subscribe registers fn to receive every accepted change. The returned
// function removes the subscription.
func (st *Store) Subscribe(fn func(Settings)) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.subs, id)
	}
}

// apply must be called with writeMu held.
func (st *Store) apply(next Settings, persist bool) (bool, error) {
	st.mu.Lock()
	if next == st.current {
		st.mu.Unlock()
		return false, nil
	}
	st.current = next
	subs := make([]func(Settings), 0, len(st.subs))
	for _, fn := range st.subs {
		subs = append(subs, fn)
	}
	st.mu.Unlock()

	var err error
	if persist && st.path != "" {
		if err = Save(st.path, next); err != nil {
			gridsurface.Logger().Warn("settings: persist failed", "path", st.path, "err", err)
		}
	}

	gridsurface.Logger().Debug("settings: changed", "settings", next.String())
	for _, fn := range subs {
		fn(next)
	}
	return true, err
}

// Watch reloads the settings file whenever it changes on disk until ctx is
// done. Invalid files are logged and ignored. The parent directory is
// watched so that atomic replacements are observed.
func (st *Store) Watch(ctx context.Context) error {
	if st.path == "" {
		return errors.New("settings: store has no backing file")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(st.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("settings: watch %s: %w", dir, err)
	}

	target := filepath.Clean(st.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			st.reload()
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			gridsurface.Logger().Warn("settings: watcher error", "err", werr)
		}
	}
}

// reload applies the file contents. A file that is gone, as during an
// editor's rename-and-replace save, leaves the store untouched.
func (st *Store) reload() {
	s, err := loadFile(st.path)
	if errors.Is(err, fs.ErrNotExist) {
		gridsurface.Logger().Debug("settings: file removed, keeping current settings", "path", st.path)
		return
	}
	if err != nil {
		gridsurface.Logger().Warn("settings: ignoring unreadable settings file", "path", st.path, "err", err)
		return
	}
	st.writeMu.Lock()
	defer st.writeMu.Unlock()
	if changed, _ := st.apply(s, false); changed {
		gridsurface.Logger().Info("settings: reloaded from disk", "settings", s.String())
	}
}
