package compiler

import (
	"fmt"
	"strings"

	"github.com/conneroisu/dxcwatch/internal/errors"
)

// Target is a shader pipeline stage.
type Target int

const (
	TargetVertex Target = iota
	TargetHull
	TargetDomain
	TargetGeometry
	TargetPixel
	TargetCompute
	TargetMesh
	TargetAmplification
)

var targetNames = [...]struct {
	long  string
	short string
}{
	TargetVertex:        {"vertex", "vs"},
	TargetHull:          {"hull", "hs"},
	TargetDomain:        {"domain", "ds"},
	TargetGeometry:      {"geometry", "gs"},
	TargetPixel:         {"pixel", "ps"},
	TargetCompute:       {"compute", "cs"},
	TargetMesh:          {"mesh", "ms"},
	TargetAmplification: {"amplification", "as"},
}

func (t Target) valid() bool { return t >= TargetVertex && int(t) < len(targetNames) }

// String returns the long stage name.
func (t Target) String() string {
	if !t.valid() {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targetNames[t].long
}

// Short returns the two-letter stage abbreviation used in profiles.
func (t Target) Short() string {
	if !t.valid() {
		return "??"
	}
	return targetNames[t].short
}

// Profile returns the DXC target profile for shader model 6.minor, e.g. "ps_6_5".
func (t Target) Profile(minor int) string {
	return fmt.Sprintf("%s_6_%d", t.Short(), minor)
}

// InvertsY reports whether SPIR-V output for this stage flips clip space Y.
func (t Target) InvertsY() bool {
	return t == TargetVertex || t == TargetGeometry || t == TargetDomain
}

// MarshalText encodes the target as its short name.
func (t Target) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("invalid target %d", int(t))
	}
	return []byte(t.Short()), nil
}

// UnmarshalText decodes a short or long target name.
func (t *Target) UnmarshalText(text []byte) error {
	parsed, err := ParseTarget(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTarget parses a stage from its short ("vs") or long ("vertex") name.
func ParseTarget(s string) (Target, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range targetNames {
		if name == n.short || name == n.long {
			return Target(i), nil
		}
	}
	return 0, errors.NewParseError(errors.CodeInvalidTarget,
		fmt.Sprintf("unknown shader target %q (expected one of vs, hs, ds, gs, ps, cs, ms, as)", s), nil)
}

// Output is a compiled binary format.
type Output string

const (
	OutputDXIL  Output = "dxil"
	OutputSPIRV Output = "spirv"
)

// Extension returns the file extension written for o.
func (o Output) Extension() string {
	if o == OutputSPIRV {
		return ".spv"
	}
	return ".dxil"
}

// ParseOutput parses an output format name.
func ParseOutput(s string) (Output, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dxil":
		return OutputDXIL, nil
	case "spirv", "spir-v", "spv":
		return OutputSPIRV, nil
	default:
		return "", errors.NewConfigError(errors.CodeConfigInvalid, fmt.Sprintf("unknown output format %q", s))
	}
}

// Shader model bounds, as minor versions of shader model 6.
const (
	DefaultShaderModel = 5
	MinShaderModel     = 0
	MaxShaderModel     = 8

	minMeshShaderModel = 5
)
