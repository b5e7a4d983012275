// Package validation checks the values that end up on a compiler command
// line or in the notify server configuration.
//
// The compiler is executed directly rather than through a shell, so the
// checks here are about rejecting values DXC would misinterpret (an entry
// point that looks like a flag, a define with embedded whitespace) rather
// than shell quoting.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/conneroisu/dxcwatch/internal/errors"
)

func invalid(format string, args ...interface{}) *errors.Error {
	return errors.NewValidationError(errors.CodeInvalidArgument, fmt.Sprintf(format, args...))
}

// ValidateIdentifier validates an HLSL identifier such as an entry point or
// a library export name.
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return invalid("%s cannot be empty", kind)
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r) && r < unicode.MaxASCII:
		case unicode.IsDigit(r) && r < unicode.MaxASCII && i > 0:
		default:
			return invalid("%s %q is not a valid identifier", kind, name)
		}
	}
	return nil
}

// ValidateDefine validates a preprocessor define of the form NAME or
// NAME=VALUE.
func ValidateDefine(define string) error {
	name, value, _ := strings.Cut(define, "=")
	if err := ValidateIdentifier("define name", name); err != nil {
		return err
	}
	for _, r := range value {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return invalid("define %q contains whitespace or control characters", define)
		}
	}
	return nil
}

// ValidatePath validates a file path passed to the compiler.
func ValidatePath(path string) error {
	if path == "" {
		return invalid("path cannot be empty")
	}
	if strings.HasPrefix(path, "-") {
		return invalid("path %q would be parsed as a flag", path)
	}
	for _, r := range path {
		if r == 0 || unicode.IsControl(r) {
			return invalid("path %q contains control characters", path)
		}
	}
	return nil
}

// ValidateExecutable validates the compiler executable. Bare names must be
// in allowed; absolute paths must name an allowed binary.
func ValidateExecutable(executable string, allowed map[string]bool) error {
	if executable == "" {
		return invalid("compiler executable cannot be empty")
	}
	if err := ValidatePath(executable); err != nil {
		return err
	}

	base := strings.TrimSuffix(strings.ToLower(filepath.Base(executable)), ".exe")
	if !allowed[base] {
		return invalid("compiler executable %q is not allowed", executable)
	}
	if filepath.Base(executable) != executable && !filepath.IsAbs(executable) {
		return invalid("compiler executable %q must be a bare name or an absolute path", executable)
	}
	return nil
}

// ValidateOrigin validates a WebSocket origin against the allowed hosts.
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return invalid("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return invalid("invalid origin format: %v", err)
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return invalid("invalid origin scheme %q: only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed || originURL.Hostname() == allowed {
			return nil
		}
	}
	return invalid("origin %q is not in allowed origins list", origin)
}

// SanitizeOutput strips NUL and control characters, keeping common
// whitespace, from compiler output before it is logged or broadcast.
func SanitizeOutput(input string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}
