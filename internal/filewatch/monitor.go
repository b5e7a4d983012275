package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/logging"
)

type entry struct {
	path string
	flag *flag
}

// Monitor owns one native watch on a single directory and the goroutine
// that translates its events into flag updates.
type Monitor struct {
	dir      string
	notifier Notifier
	logger   logging.Logger

	mu      sync.Mutex
	entries []entry

	done      chan struct{}
	closeOnce sync.Once
}

// MonitorStats describes a Monitor.
type MonitorStats struct {
	Dir     string
	Entries int
}

func newMonitor(dir string, backend Backend, logger logging.Logger) (*Monitor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewWatchError(errors.CodeNotFound, "directory does not exist", err).WithPath(dir)
	}
	if !info.IsDir() {
		return nil, errors.NewWatchError(errors.CodeNotDirectory, "not a directory", nil).WithPath(dir)
	}
	canonical, err := canonicalize(dir)
	if err != nil {
		return nil, errors.NewWatchError(errors.CodeNotFound, "cannot resolve directory", err).WithPath(dir)
	}

	notifier, err := backend.Open(canonical)
	if err != nil {
		return nil, classifyOpenError(canonical, err)
	}

	m := &Monitor{
		dir:      canonical,
		notifier: notifier,
		logger:   logger.With("dir", canonical, "backend", backend.Name()),
		done:     make(chan struct{}),
	}
	go m.observe()
	m.logger.Debug(context.Background(), "Directory monitor started")
	return m, nil
}

// Dir returns the canonical directory this Monitor watches.
func (m *Monitor) Dir() string { return m.dir }

func (m *Monitor) observe() {
	defer close(m.done)
	defer func() {
		if err := m.notifier.Close(); err != nil {
			m.logger.Warn(context.Background(), err, "Failed to release native watch")
		}
	}()

	ctx := context.Background()
	for {
		names, err := m.notifier.Next()
		switch {
		case err == nil:
			m.dispatch(names)
		case errors.Is(err, ErrNotifierClosed):
			return
		case errors.Is(err, ErrEventOverflow):
			m.logger.Warn(ctx, err, "Events were dropped, marking every watched file changed")
			m.markAll()
		default:
			m.logger.Warn(ctx, err, "Watch error")
		}
	}
}

// dispatch sets the flag of every entry whose path equals a changed name.
// Names are resolved against the Monitor's canonical directory, which keeps
// matching exact even when the native API reports through a symlinked path.
func (m *Monitor) dispatch(names []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		path := filepath.Join(m.dir, filepath.Base(name))
		for _, e := range m.entries {
			if e.path == path {
				e.flag.changed.Store(true)
			}
		}
	}
}

func (m *Monitor) markAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.flag.changed.Store(true)
	}
}

// add registers f for path if path lives directly in this directory.
func (m *Monitor) add(path string, f *flag) bool {
	if filepath.Dir(path) != m.dir {
		return false
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry{path: path, flag: f})
	m.mu.Unlock()
	return true
}

// remove drops the entry holding f.
func (m *Monitor) remove(f *flag) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.flag == f {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

// lookup returns a live flag registered for exactly path.
func (m *Monitor) lookup(path string) *flag {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.path == path && e.flag.refs > 0 {
			return e.flag
		}
	}
	return nil
}

func (m *Monitor) empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries) == 0
}

// close cancels the notifier and waits for the observer goroutine to exit.
func (m *Monitor) close() {
	m.closeOnce.Do(func() {
		m.notifier.Cancel()
		<-m.done
		m.logger.Debug(context.Background(), "Directory monitor stopped")
	})
}

// Stats returns the directory and the number of registered entries.
func (m *Monitor) Stats() MonitorStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MonitorStats{Dir: m.dir, Entries: len(m.entries)}
}

// canonicalize returns the absolute, symlink-resolved form of path.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
