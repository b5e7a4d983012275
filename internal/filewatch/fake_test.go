package filewatch

import (
	"sync"
	"sync/atomic"
)

// fakeBackend hands out in-memory notifiers so tests can inject events
// without touching the OS watch APIs.
type fakeBackend struct {
	mu        sync.Mutex
	notifiers map[string]*fakeNotifier
	opened    atomic.Int32
	openErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{notifiers: make(map[string]*fakeNotifier)}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Open(dir string) (Notifier, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	n := &fakeNotifier{
		events: make(chan []string, 16),
		errs:   make(chan error, 16),
		done:   make(chan struct{}),
	}
	b.mu.Lock()
	b.notifiers[dir] = n
	b.mu.Unlock()
	b.opened.Add(1)
	return n, nil
}

func (b *fakeBackend) notifier(dir string) *fakeNotifier {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notifiers[dir]
}

type fakeNotifier struct {
	events chan []string
	errs   chan error
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

func (n *fakeNotifier) Next() ([]string, error) {
	select {
	case <-n.done:
		return nil, ErrNotifierClosed
	case names := <-n.events:
		return names, nil
	case err := <-n.errs:
		return nil, err
	}
}

func (n *fakeNotifier) Cancel() { n.once.Do(func() { close(n.done) }) }

func (n *fakeNotifier) Close() error {
	n.closed.Store(true)
	return nil
}

func (n *fakeNotifier) send(names ...string) { n.events <- names }

func (n *fakeNotifier) fail(err error) { n.errs <- err }
