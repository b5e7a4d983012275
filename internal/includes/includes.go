// Package includes discovers the files a shader source transitively
// includes, so they can be watched alongside it.
package includes

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/conneroisu/dxcwatch/internal/errors"
)

var includePattern = regexp.MustCompile(`^\s*#\s*include\s*[<"]([^>"]+)[>"]`)

// Scanner resolves includes. The zero value is ready to use.
type Scanner struct{}

// Scan implements the rebuild loop's include scanner.
func (Scanner) Scan(source string, searchDirs []string) ([]string, error) {
	return Scan(source, searchDirs)
}

// Scan returns the absolute paths of every file source includes, directly
// or transitively, in discovery order and without duplicates. An include is
// resolved against the including file's directory first, then against each
// search directory in order. Includes that resolve nowhere are skipped, as
// are include cycles. Only an unreadable source is an error.
func Scan(source string, searchDirs []string) ([]string, error) {
	root, err := filepath.Abs(source)
	if err != nil {
		return nil, errors.NewIOError(errors.CodeNotFound, "cannot resolve shader source", err).WithPath(source)
	}
	names, err := directIncludes(root)
	if err != nil {
		return nil, errors.NewIOError(errors.CodeNotFound, "cannot read shader source", err).WithPath(root)
	}

	dirs := make([]string, 0, len(searchDirs))
	for _, d := range searchDirs {
		if abs, err := filepath.Abs(d); err == nil {
			dirs = append(dirs, abs)
		}
	}

	s := &scan{dirs: dirs, seen: map[string]bool{root: true}}
	s.visit(root, names)
	return s.found, nil
}

type scan struct {
	dirs  []string
	seen  map[string]bool
	found []string
}

func (s *scan) visit(file string, names []string) {
	for _, name := range names {
		path, ok := s.resolve(filepath.Dir(file), name)
		if !ok || s.seen[path] {
			continue
		}
		s.seen[path] = true
		s.found = append(s.found, path)

		nested, err := directIncludes(path)
		if err != nil {
			continue
		}
		s.visit(path, nested)
	}
}

func (s *scan) resolve(from, name string) (string, bool) {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		return filepath.Clean(name), isFile(name)
	}
	for _, dir := range append([]string{from}, s.dirs...) {
		candidate := filepath.Join(dir, name)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// directIncludes lists the include names in one file, ignoring any inside
// block comments.
func directIncludes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	inComment := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		line, inComment = stripBlockComments(line, inComment)
		if m := includePattern.FindStringSubmatch(line); m != nil {
			names = append(names, m[1])
		}
	}
	return names, scanner.Err()
}

// stripBlockComments removes /* */ spans from line given whether the line
// starts inside a comment, and reports whether it ends inside one.
func stripBlockComments(line string, inComment bool) (string, bool) {
	var out strings.Builder
	for len(line) > 0 {
		if inComment {
			end := strings.Index(line, "*/")
			if end < 0 {
				return out.String(), true
			}
			line = line[end+2:]
			inComment = false
			continue
		}
		start := strings.Index(line, "/*")
		if start < 0 {
			out.WriteString(line)
			break
		}
		out.WriteString(line[:start])
		line = line[start+2:]
		inComment = true
	}
	return out.String(), inComment
}
