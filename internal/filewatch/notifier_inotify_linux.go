//go:build linux

package filewatch

import (
	"encoding/binary"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const inotifyMask = unix.IN_MODIFY | unix.IN_ATTRIB | unix.IN_CLOSE_WRITE |
	unix.IN_CREATE | unix.IN_DELETE | unix.IN_MOVED_FROM | unix.IN_MOVED_TO

type inotifyBackend struct{}

func (inotifyBackend) Name() string { return BackendInotify }

// Open creates a private inotify instance watching dir, plus an eventfd
// used to wake a blocked Next on Cancel.
func (inotifyBackend) Open(dir string) (Notifier, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, err
	}
	if _, err := unix.InotifyAddWatch(fd, dir, inotifyMask); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	wake, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &inotifyNotifier{
		dir:  dir,
		fd:   fd,
		wake: wake,
		buf:  make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1)),
	}, nil
}

type inotifyNotifier struct {
	dir  string
	fd   int
	wake int
	buf  []byte

	cancelOnce sync.Once
	closeOnce  sync.Once
}

func (n *inotifyNotifier) Next() ([]string, error) {
	for {
		fds := []unix.PollFd{
			{Fd: int32(n.fd), Events: unix.POLLIN},
			{Fd: int32(n.wake), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, err
		}
		if fds[1].Revents != 0 {
			return nil, ErrNotifierClosed
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		count, err := unix.Read(n.fd, n.buf)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return nil, err
		}
		names, overflow := n.parse(n.buf[:count])
		if overflow {
			return nil, ErrEventOverflow
		}
		if len(names) > 0 {
			return names, nil
		}
	}
}

// parse decodes a buffer of packed inotify_event records.
func (n *inotifyNotifier) parse(buf []byte) (names []string, overflow bool) {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameLen := int(event.Len)
		start := offset + unix.SizeofInotifyEvent
		offset = start + nameLen

		if event.Mask&unix.IN_Q_OVERFLOW != 0 {
			overflow = true
			continue
		}
		if nameLen == 0 || offset > len(buf) {
			continue
		}
		name := strings.TrimRight(string(buf[start:offset]), "\x00")
		if name != "" {
			names = append(names, filepath.Join(n.dir, name))
		}
	}
	return names, overflow
}

func (n *inotifyNotifier) Cancel() {
	n.cancelOnce.Do(func() {
		var one [8]byte
		binary.NativeEndian.PutUint64(one[:], 1)
		_, _ = unix.Write(n.wake, one[:])
	})
}

func (n *inotifyNotifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		err = unix.Close(n.fd)
		if cerr := unix.Close(n.wake); err == nil {
			err = cerr
		}
	})
	return err
}
