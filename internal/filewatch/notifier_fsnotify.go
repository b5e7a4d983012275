package filewatch

import (
	"sync"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/fsnotify/fsnotify"
)

type fsnotifyBackend struct{}

func (fsnotifyBackend) Name() string { return BackendFSNotify }

// Open creates one fsnotify.Watcher dedicated to dir.
func (fsnotifyBackend) Open(dir string) (Notifier, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return &fsNotifier{
		watcher: watcher,
		done:    make(chan struct{}),
	}, nil
}

type fsNotifier struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

func (n *fsNotifier) Next() ([]string, error) {
	select {
	case <-n.done:
		return nil, ErrNotifierClosed
	case event, ok := <-n.watcher.Events:
		if !ok {
			return nil, ErrNotifierClosed
		}
		names := []string{event.Name}
		// Coalesce whatever is already queued into the same batch.
		for {
			select {
			case event, ok := <-n.watcher.Events:
				if !ok {
					return names, nil
				}
				names = append(names, event.Name)
			default:
				return names, nil
			}
		}
	case err, ok := <-n.watcher.Errors:
		if !ok {
			return nil, ErrNotifierClosed
		}
		if errors.Is(err, fsnotify.ErrEventOverflow) {
			return nil, ErrEventOverflow
		}
		return nil, err
	}
}

func (n *fsNotifier) Cancel() {
	n.once.Do(func() { close(n.done) })
}

func (n *fsNotifier) Close() error {
	return n.watcher.Close()
}
