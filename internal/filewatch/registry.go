package filewatch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/logging"
)

// Options configures a Registry.
type Options struct {
	// Backend opens native watches. Nil selects fsnotify.
	Backend Backend
	// Logger receives monitor lifecycle and watch errors. Nil discards.
	Logger logging.Logger
}

// Registry consolidates file watches into one Monitor per directory.
type Registry struct {
	mu       sync.Mutex
	monitors []*Monitor
	closed   bool

	backend Backend
	logger  logging.Logger
}

// Stats summarises the live watches of a Registry.
type Stats struct {
	Monitors    int
	Entries     int
	Directories map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.Backend == nil {
		opts.Backend = fsnotifyBackend{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Registry{
		backend: opts.Backend,
		logger:  opts.Logger.WithComponent("filewatch"),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(Options{})
	})
	return defaultRegistry
}

// WatchFile watches path using the default registry.
func WatchFile(path string, forceUnique bool) (*Handle, error) {
	return Default().WatchFile(path, forceUnique)
}

// WatchFile returns a handle whose flag is set whenever path is modified.
//
// Unless forceUnique is set, a live flag already registered for the same
// canonical path is shared and its reference count incremented. Otherwise a
// new flag is attached to the Monitor of path's directory, creating that
// Monitor if needed. On failure the returned handle is nil.
func (r *Registry) WatchFile(path string, forceUnique bool) (*Handle, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return nil, errors.NewWatchError(errors.CodeNotFound, "cannot resolve file", err).WithPath(path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.NewWatchError(errors.CodeRegistryClosed, "registry is closed", nil).WithPath(canonical)
	}

	if !forceUnique {
		for _, m := range r.monitors {
			if f := m.lookup(canonical); f != nil {
				f.refs++
				return r.handle(f), nil
			}
		}
	}

	f := &flag{path: canonical, refs: 1}
	for _, m := range r.monitors {
		if m.add(canonical, f) {
			f.monitor = m
			return r.handle(f), nil
		}
	}

	m, err := newMonitor(filepath.Dir(canonical), r.backend, r.logger)
	if err != nil {
		return nil, err
	}
	if !m.add(canonical, f) {
		// The directory resolved differently the second time around.
		m.close()
		return nil, errors.NewWatchError(errors.CodeWatchCreateFailed,
			"directory changed while creating monitor", nil).WithPath(canonical)
	}
	f.monitor = m
	r.monitors = append(r.monitors, m)
	return r.handle(f), nil
}

func (r *Registry) handle(f *flag) *Handle {
	return &Handle{flag: f, registry: r}
}

func (r *Registry) retain(f *flag) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.refs++
	return r.handle(f)
}

// release drops one reference to f. The last reference detaches f and
// closes its Monitor when nothing else is watched there; the observer
// goroutine is joined before release returns.
func (r *Registry) release(f *flag) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f.refs--
	if f.refs > 0 {
		return
	}
	m := f.monitor
	f.monitor = nil
	if m == nil {
		return
	}
	m.remove(f)
	if !m.empty() {
		return
	}
	for i, candidate := range r.monitors {
		if candidate == m {
			r.monitors = append(r.monitors[:i], r.monitors[i+1:]...)
			break
		}
	}
	m.close()
}

// Stats reports the live Monitors and entries.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{Directories: make(map[string]int, len(r.monitors))}
	for _, m := range r.monitors {
		ms := m.Stats()
		stats.Monitors++
		stats.Entries += ms.Entries
		stats.Directories[ms.Dir] = ms.Entries
	}
	return stats
}

// Monitors returns the stats of every Monitor ordered by directory.
func (r *Registry) Monitors() []MonitorStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]MonitorStats, 0, len(r.monitors))
	for _, m := range r.monitors {
		out = append(out, m.Stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out
}

// Close tears down every Monitor. Outstanding handles become inert and
// further WatchFile calls fail.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	for _, m := range r.monitors {
		m.mu.Lock()
		for _, e := range m.entries {
			e.flag.monitor = nil
		}
		m.entries = nil
		m.mu.Unlock()
		m.close()
	}
	r.logger.Debug(context.Background(), "Registry closed", "monitors", len(r.monitors))
	r.monitors = nil
	return nil
}
