package filewatch

import (
	"fmt"
	"runtime"
	"strings"
	"syscall"

	"github.com/conneroisu/dxcwatch/internal/errors"
)

// Notifier is the platform file-system watch primitive behind a Monitor. It
// covers exactly one directory.
//
// Next blocks until a batch of changed names is available and returns their
// paths. It returns ErrNotifierClosed once Cancel has been called and
// ErrEventOverflow when the native queue dropped events. Any other error is
// transient. Cancel may be called from any goroutine and unblocks a pending
// Next. Close releases the native resources and is called by the goroutine
// that drives Next after it observed ErrNotifierClosed.
type Notifier interface {
	Next() ([]string, error)
	Cancel()
	Close() error
}

// Backend opens Notifiers for directories.
type Backend interface {
	Name() string
	Open(dir string) (Notifier, error)
}

var (
	// ErrNotifierClosed is returned by Notifier.Next after Cancel.
	ErrNotifierClosed = errors.NewWatchError(errors.CodeNotifierClosed, "notifier closed", nil)
	// ErrEventOverflow is returned by Notifier.Next when events were lost.
	ErrEventOverflow = errors.NewWatchError(errors.CodeEventOverflow, "native event queue overflowed", nil)
)

// Backend names accepted by BackendByName.
const (
	BackendFSNotify = "fsnotify"
	BackendInotify  = "inotify"
	BackendNotify   = "notify"
)

// BackendNames lists the supported backend names.
func BackendNames() []string {
	return []string{BackendFSNotify, BackendInotify, BackendNotify}
}

// BackendByName returns the backend for name. The empty name selects fsnotify.
func BackendByName(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendFSNotify:
		return fsnotifyBackend{}, nil
	case BackendInotify:
		return inotifyBackend{}, nil
	case BackendNotify:
		return notifyBackend{}, nil
	default:
		return nil, errors.NewConfigError(errors.CodeConfigInvalid,
			fmt.Sprintf("unknown watch backend %q (supported: %s)", name, strings.Join(BackendNames(), ", ")))
	}
}

// classifyOpenError wraps a native watch creation failure. Resource-limit
// exhaustion gets its own code and a remediation hint.
func classifyOpenError(dir string, err error) error {
	if errors.Is(err, ErrBackendUnsupported) {
		return err
	}
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EMFILE) {
		limit := errors.NewWatchError(errors.CodeWatchLimit, "native watch limit reached", err).WithPath(dir)
		if runtime.GOOS == "linux" {
			limit.WithHint("consider increasing inotify limits: " +
				"echo 16384 | sudo tee /proc/sys/fs/inotify/max_user_watches; " +
				"echo 1024 | sudo tee /proc/sys/fs/inotify/max_user_instances")
		}
		return limit
	}
	return errors.NewWatchError(errors.CodeWatchCreateFailed, "cannot watch directory", err).WithPath(dir)
}

// ErrBackendUnsupported is returned when a backend is not available on the
// running platform.
var ErrBackendUnsupported = errors.ErrBackendUnsupported
