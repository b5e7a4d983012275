// Package notify broadcasts rebuild results to WebSocket clients, so a
// running engine can hot-reload shaders as soon as their binaries change.
package notify

import (
	"time"

	"github.com/conneroisu/dxcwatch/internal/errors"
)

// EventType classifies an Event.
type EventType string

const (
	// EventRebuilt is sent when a unit compiled and its outputs were written.
	EventRebuilt EventType = "rebuilt"
	// EventFailed is sent when a unit failed to compile.
	EventFailed EventType = "failed"
	// EventErrors is sent when the number of failing units changes.
	EventErrors EventType = "errors"
)

// Event is the JSON message sent to clients.
type Event struct {
	Type        EventType           `json:"type"`
	Unit        string              `json:"unit,omitempty"`
	Outputs     []string            `json:"outputs,omitempty"`
	Errors      int                 `json:"errors"`
	Delta       int                 `json:"delta,omitempty"`
	Message     string              `json:"message,omitempty"`
	Diagnostics []errors.Diagnostic `json:"diagnostics,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}
