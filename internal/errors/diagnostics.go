package errors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity of a compiler diagnostic.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one located message from the compiler output.
type Diagnostic struct {
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// String formats the diagnostic the way clang-style compilers print it.
func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

type diagnosticPattern struct {
	regex       *regexp.Regexp
	parseFields func(matches []string) Diagnostic
}

var diagnosticPatterns = []diagnosticPattern{
	{
		// file.hlsl:12:5: error: message
		regex: regexp.MustCompile(`^(.+?):(\d+):(\d+): (fatal error|error|warning|note): (.+)$`),
		parseFields: func(m []string) Diagnostic {
			line, _ := strconv.Atoi(m[2])
			column, _ := strconv.Atoi(m[3])
			return Diagnostic{File: m[1], Line: line, Column: column, Severity: parseSeverity(m[4]), Message: m[5]}
		},
	},
	{
		// file.hlsl:12: error: message
		regex: regexp.MustCompile(`^(.+?):(\d+): (fatal error|error|warning|note): (.+)$`),
		parseFields: func(m []string) Diagnostic {
			line, _ := strconv.Atoi(m[2])
			return Diagnostic{File: m[1], Line: line, Severity: parseSeverity(m[3]), Message: m[4]}
		},
	},
	{
		// error: message
		regex: regexp.MustCompile(`^(fatal error|error|warning): (.+)$`),
		parseFields: func(m []string) Diagnostic {
			return Diagnostic{Severity: parseSeverity(m[1]), Message: m[2]}
		},
	},
}

func parseSeverity(s string) Severity {
	switch s {
	case "note":
		return SeverityNote
	case "warning":
		return SeverityWarning
	case "fatal error":
		return SeverityFatal
	default:
		return SeverityError
	}
}

// ParseDiagnostics extracts located diagnostics from compiler output. Lines
// that match no known layout (source excerpts, caret markers) are skipped.
func ParseDiagnostics(output string) []Diagnostic {
	var diagnostics []Diagnostic
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, pattern := range diagnosticPatterns {
			if m := pattern.regex.FindStringSubmatch(line); m != nil {
				diagnostics = append(diagnostics, pattern.parseFields(m))
				break
			}
		}
	}
	return diagnostics
}

// CountErrors returns how many diagnostics are errors or fatal errors.
func CountErrors(diagnostics []Diagnostic) int {
	n := 0
	for _, d := range diagnostics {
		if d.Severity >= SeverityError {
			n++
		}
	}
	return n
}
