// Package filewatch watches individual files for modification using native
// OS notifications.
//
// Callers ask for a file with WatchFile and receive a *Handle whose
// IsChanged reports whether the file was modified since the last Clear.
// Requests are consolidated: every watched file whose parent directory is
// the same shares one Monitor, which owns a single OS-level directory watch
// and one observer goroutine. Handles are reference counted; releasing the
// last handle for a file detaches it from its Monitor, and a Monitor with no
// files left is torn down (goroutine joined, native watch released) before
// Release returns.
//
// Usage:
//
//	h, err := filewatch.WatchFile("shaders/blit.hlsl", false)
//	if err != nil {
//		return err
//	}
//	defer h.Release()
//
//	// later, on a poll tick
//	if h.IsChanged() {
//		h.Clear()
//		reload()
//	}
//
// Watching is flat: a Monitor covers exactly one directory level. Changed
// names are matched against watched files by full canonical path.
package filewatch
