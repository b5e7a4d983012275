//go:build !linux

package filewatch

import "github.com/conneroisu/dxcwatch/internal/errors"

type inotifyBackend struct{}

func (inotifyBackend) Name() string { return BackendInotify }

func (inotifyBackend) Open(dir string) (Notifier, error) {
	return nil, errors.NewWatchError(errors.CodeBackendUnsupported,
		"the inotify backend is only available on linux", nil).WithPath(dir)
}
