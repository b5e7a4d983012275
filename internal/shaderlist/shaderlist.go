// Package shaderlist parses shaderlist files, which enumerate the shaders of
// a project and where their binaries go.
//
// Three layouts are understood, chosen by file extension:
//
//	.json        array of source objects (binaries and libraries)
//	.yml, .yaml  the same structure in YAML
//	anything else
//	             one binary per line: input entrypoint target output
//
// Relative paths are resolved against the directory holding the shaderlist.
// Output paths carry no extension; the compiler appends one per format.
package shaderlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/errors"
)

// BinaryUnit is one entry point of one source compiled for one stage.
type BinaryUnit struct {
	// Source is the path as written in the shaderlist.
	Source string
	// SourceAbs is Source resolved against the shaderlist directory.
	SourceAbs  string
	Entrypoint string
	Target     compiler.Target
	// Output is the absolute output path without extension.
	Output  string
	Defines []string
}

// Name identifies the unit in logs.
func (u BinaryUnit) Name() string {
	return fmt.Sprintf("%s:%s (%s)", u.Source, u.Entrypoint, u.Target.Short())
}

// Request converts the unit into a compile request.
func (u BinaryUnit) Request() compiler.BinaryRequest {
	return compiler.BinaryRequest{
		Source:     u.SourceAbs,
		Entrypoint: u.Entrypoint,
		Target:     u.Target,
		Output:     u.Output,
		Defines:    u.Defines,
	}
}

// LibraryUnit is a DXIL library built from one source.
type LibraryUnit struct {
	Source    string
	SourceAbs string
	Exports   []compiler.Export
	Output    string
	Defines   []string
}

// Name identifies the unit in logs.
func (u LibraryUnit) Name() string {
	return fmt.Sprintf("%s (library)", u.Source)
}

// Request converts the unit into a compile request.
func (u LibraryUnit) Request() compiler.LibraryRequest {
	return compiler.LibraryRequest{
		Source:  u.SourceAbs,
		Exports: u.Exports,
		Output:  u.Output,
		Defines: u.Defines,
	}
}

// List is the parsed content of a shaderlist.
type List struct {
	// Path is the absolute path of the shaderlist file.
	Path      string
	Binaries  []BinaryUnit
	Libraries []LibraryUnit
	// Warnings holds entries that were skipped because they were invalid.
	Warnings []error
}

// Dir returns the directory relative paths were resolved against.
func (l List) Dir() string { return filepath.Dir(l.Path) }

// Len returns the total number of units.
func (l List) Len() int { return len(l.Binaries) + len(l.Libraries) }

// Format is a shaderlist file layout.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "text"
	}
}

// DetectFormat picks the layout from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Parser parses shaderlist files. The zero value is ready to use.
type Parser struct{}

// Parse implements the rebuild loop's unit parser.
func (Parser) Parse(path string) (List, error) { return Parse(path) }

// Parse reads and parses the shaderlist at path. A file that cannot be read
// or is syntactically broken is an error; individual bad entries only add
// to List.Warnings.
func Parse(path string) (List, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return List{}, errors.NewIOError(errors.CodeShaderlistRead, "cannot resolve shaderlist path", err).WithPath(path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return List{}, errors.NewIOError(errors.CodeShaderlistRead, "cannot read shaderlist", err).WithPath(abs)
	}
	return ParseBytes(data, abs, DetectFormat(abs))
}

// ParseBytes parses data as if it had been read from path.
func ParseBytes(data []byte, path string, format Format) (List, error) {
	list := List{Path: path}
	var err error
	switch format {
	case FormatJSON:
		err = parseJSON(data, &list)
	case FormatYAML:
		err = parseYAML(data, &list)
	default:
		err = parseText(data, &list)
	}
	if err != nil {
		return List{}, err
	}
	return list, nil
}

// resolve makes p absolute relative to the shaderlist directory.
func (l *List) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(l.Dir(), p)
}

func (l *List) warn(location, format string, args ...interface{}) {
	l.Warnings = append(l.Warnings,
		errors.NewParseError(errors.CodeInvalidEntry, fmt.Sprintf(format, args...), nil).WithPath(location))
}
