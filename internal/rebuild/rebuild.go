// Package rebuild implements the incremental watch session: it compiles
// every unit of a shaderlist once, then polls change flags and recompiles
// only the units whose source or transitive includes changed.
//
// A session moves through three states. Initializing parses the shaderlist,
// watches every source and include, and builds everything. Watching polls
// on a fixed interval. Refreshing replaces the unit set when the shaderlist
// itself changes and then falls back to Watching. Only changes in the
// number of failing units are reported.
package rebuild

import (
	"context"
	"time"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/filewatch"
	"github.com/conneroisu/dxcwatch/internal/notify"
	"github.com/conneroisu/dxcwatch/internal/shaderlist"
)

// DefaultPollInterval is the delay between two polls of the change flags.
const DefaultPollInterval = 250 * time.Millisecond

// UnitParser reads a shaderlist.
type UnitParser interface {
	Parse(path string) (shaderlist.List, error)
}

// IncludeScanner lists the files a source transitively includes.
type IncludeScanner interface {
	Scan(source string, searchDirs []string) ([]string, error)
}

// Compiler compiles units and writes their outputs.
type Compiler interface {
	CompileBinary(ctx context.Context, req compiler.BinaryRequest) (compiler.Result, error)
	CompileLibrary(ctx context.Context, req compiler.LibraryRequest) (compiler.Result, error)
	Close() error
}

// Watcher hands out file change flags.
type Watcher interface {
	WatchFile(path string, forceUnique bool) (*filewatch.Handle, error)
}

// Listener receives rebuild events.
type Listener interface {
	Publish(e notify.Event)
}

// Summary describes the state of a session when it stopped.
type Summary struct {
	Binaries  int
	Libraries int
	// Errors is the number of units whose last build failed.
	Errors int
}

// Units returns the total number of units.
func (s Summary) Units() int { return s.Binaries + s.Libraries }
