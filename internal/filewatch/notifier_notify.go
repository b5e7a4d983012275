package filewatch

import (
	"sync"

	"github.com/rjeczalik/notify"
)

const notifyBufferSize = 64

type notifyBackend struct{}

func (notifyBackend) Name() string { return BackendNotify }

// Open registers a non-recursive rjeczalik/notify watch on dir.
func (notifyBackend) Open(dir string) (Notifier, error) {
	events := make(chan notify.EventInfo, notifyBufferSize)
	if err := notify.Watch(dir, events, notify.All); err != nil {
		return nil, err
	}
	return &notifyNotifier{
		events: events,
		done:   make(chan struct{}),
	}, nil
}

type notifyNotifier struct {
	events chan notify.EventInfo
	done   chan struct{}
	once   sync.Once
}

func (n *notifyNotifier) Next() ([]string, error) {
	select {
	case <-n.done:
		return nil, ErrNotifierClosed
	case info := <-n.events:
		names := []string{info.Path()}
		for {
			select {
			case info := <-n.events:
				names = append(names, info.Path())
			default:
				return names, nil
			}
		}
	}
}

func (n *notifyNotifier) Cancel() {
	n.once.Do(func() { close(n.done) })
}

func (n *notifyNotifier) Close() error {
	notify.Stop(n.events)
	return nil
}
