package filewatch

import (
	"sync/atomic"
)

// flag is the shared "file changed" cell. refs and monitor are guarded by
// the owning registry's mutex; changed is written by observer goroutines
// and read or cleared by handle owners.
type flag struct {
	changed atomic.Bool
	path    string
	refs    int
	monitor *Monitor
}

// Handle is one strong reference to a change flag. Handles obtained for the
// same path without forcing uniqueness share the underlying flag.
//
// All methods are safe on a nil *Handle, which behaves like a file that
// never changes.
type Handle struct {
	flag     *flag
	registry *Registry
	released atomic.Bool
}

// IsChanged reports whether the file changed since the last Clear.
func (h *Handle) IsChanged() bool {
	if h == nil {
		return false
	}
	return h.flag.changed.Load()
}

// Clear resets the flag. It must be called after acting on a change, or the
// same change is reported again.
func (h *Handle) Clear() {
	if h == nil {
		return
	}
	h.flag.changed.Store(false)
}

// Path returns the canonical path of the watched file.
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.flag.path
}

// Retain returns a new strong reference to the same flag. It returns nil if
// h was already released.
func (h *Handle) Retain() *Handle {
	if h == nil || h.released.Load() {
		return nil
	}
	return h.registry.retain(h.flag)
}

// Release drops this reference. Releasing the last reference to a flag
// removes the file from its Monitor and tears the Monitor down if it
// watches nothing else. Release is idempotent.
func (h *Handle) Release() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	h.registry.release(h.flag)
}

// ReleaseAll releases every non-nil handle in hs.
func ReleaseAll(hs []*Handle) {
	for _, h := range hs {
		h.Release()
	}
}
