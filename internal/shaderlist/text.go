package shaderlist

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/errors"
)

// parseText reads the line layout:
//
//	# [input file] [entrypoint] [target (vs/ps/gs/ds/hs/cs)] [output file without extension]
//	src/imgui.hlsl main_vs vs bin/imgui_vs
//
// Blank lines and lines starting with # are ignored.
func parseText(data []byte, list *List) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		location := fmt.Sprintf("%s:%d", list.Path, lineNo)
		fields := strings.Fields(line)
		if len(fields) != 4 {
			list.warn(location, "expected 4 fields (input entrypoint target output), got %d", len(fields))
			continue
		}

		target, err := compiler.ParseTarget(fields[2])
		if err != nil {
			list.warn(location, "unknown shader target %q", fields[2])
			continue
		}
		list.Binaries = append(list.Binaries, BinaryUnit{
			Source:     fields[0],
			SourceAbs:  list.resolve(fields[0]),
			Entrypoint: fields[1],
			Target:     target,
			Output:     list.resolve(fields[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return errors.NewParseError(errors.CodeShaderlistSyntax, "cannot read shaderlist lines", err).WithPath(list.Path)
	}
	return nil
}
