package rebuild

import (
	"context"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/filewatch"
	"github.com/conneroisu/dxcwatch/internal/shaderlist"
)

// unit is the per-unit watch state of a session.
type unit struct {
	name    string
	source  string
	library bool
	compile func(ctx context.Context, c Compiler, includeDirs []string) (compiler.Result, error)

	sourceFlag *filewatch.Handle
	includes   []*filewatch.Handle
	built      bool
	succeeded  bool
}

func binaryUnit(b shaderlist.BinaryUnit) *unit {
	return &unit{
		name:   b.Name(),
		source: b.SourceAbs,
		compile: func(ctx context.Context, c Compiler, includeDirs []string) (compiler.Result, error) {
			req := b.Request()
			req.IncludeDirs = includeDirs
			return c.CompileBinary(ctx, req)
		},
	}
}

func libraryUnit(l shaderlist.LibraryUnit) *unit {
	return &unit{
		name:    l.Name(),
		source:  l.SourceAbs,
		library: true,
		compile: func(ctx context.Context, c Compiler, includeDirs []string) (compiler.Result, error) {
			req := l.Request()
			req.IncludeDirs = includeDirs
			return c.CompileLibrary(ctx, req)
		},
	}
}

func unitsOf(list shaderlist.List) []*unit {
	units := make([]*unit, 0, list.Len())
	for _, b := range list.Binaries {
		units = append(units, binaryUnit(b))
	}
	for _, l := range list.Libraries {
		units = append(units, libraryUnit(l))
	}
	return units
}

// triggered reports whether the source or any include changed, returning
// the flag that fired.
func (u *unit) triggered() (*filewatch.Handle, bool) {
	if u.sourceFlag.IsChanged() {
		return u.sourceFlag, true
	}
	for _, inc := range u.includes {
		if inc.IsChanged() {
			return inc, true
		}
	}
	return nil, false
}

func (u *unit) release() {
	u.sourceFlag.Release()
	u.sourceFlag = nil
	filewatch.ReleaseAll(u.includes)
	u.includes = nil
}
