package compiler

import (
	"context"
	"fmt"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/validation"
)

// Compiler turns shader sources into binaries on disk.
type Compiler interface {
	CompileBinary(ctx context.Context, req BinaryRequest) (Result, error)
	CompileLibrary(ctx context.Context, req LibraryRequest) (Result, error)
	Close() error
}

// BinaryRequest describes a single entry point compiled for one stage.
type BinaryRequest struct {
	Source     string
	Entrypoint string
	Target     Target
	// Output is the destination path without extension.
	Output string
	// IncludeDirs and Defines are appended to the compiler-wide ones.
	IncludeDirs []string
	Defines     []string
}

// Export maps an internal function name to the name exported from a library.
// An empty Export keeps the internal name.
type Export struct {
	Internal string `json:"internal" yaml:"internal"`
	Export   string `json:"export,omitempty" yaml:"export,omitempty"`
}

// String renders the export as accepted by dxc -exports.
func (e Export) String() string {
	if e.Export == "" || e.Export == e.Internal {
		return e.Internal
	}
	return e.Export + "=" + e.Internal
}

// LibraryRequest describes a DXIL library (ray tracing shaders).
type LibraryRequest struct {
	Source      string
	Exports     []Export
	Output      string
	IncludeDirs []string
	Defines     []string
}

// Result reports what a compile produced.
type Result struct {
	// Outputs lists the files written, in the order they were produced.
	Outputs     []string
	Diagnostics []errors.Diagnostic
	// Log is the sanitized compiler output.
	Log string
}

// Errors returns the number of error diagnostics.
func (r Result) Errors() int { return errors.CountErrors(r.Diagnostics) }

func (r BinaryRequest) validate() error {
	if err := validation.ValidatePath(r.Source); err != nil {
		return err
	}
	if err := validation.ValidatePath(r.Output); err != nil {
		return err
	}
	if err := validation.ValidateIdentifier("entrypoint", r.Entrypoint); err != nil {
		return err
	}
	if !r.Target.valid() {
		return errors.NewValidationError(errors.CodeInvalidTarget, fmt.Sprintf("invalid target %d", int(r.Target)))
	}
	return validateShared(r.IncludeDirs, r.Defines)
}

func (r LibraryRequest) validate() error {
	if err := validation.ValidatePath(r.Source); err != nil {
		return err
	}
	if err := validation.ValidatePath(r.Output); err != nil {
		return err
	}
	if len(r.Exports) == 0 {
		return errors.NewValidationError(errors.CodeInvalidArgument, "library has no exports")
	}
	for _, e := range r.Exports {
		if err := validation.ValidateIdentifier("export internal name", e.Internal); err != nil {
			return err
		}
		if e.Export != "" {
			if err := validation.ValidateIdentifier("export name", e.Export); err != nil {
				return err
			}
		}
	}
	return validateShared(r.IncludeDirs, r.Defines)
}

func validateShared(includeDirs, defines []string) error {
	for _, dir := range includeDirs {
		if err := validation.ValidatePath(dir); err != nil {
			return err
		}
	}
	for _, define := range defines {
		if err := validation.ValidateDefine(define); err != nil {
			return err
		}
	}
	return nil
}
