// Package testutils holds helpers for tests that need a shader project on
// disk.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Shader sources understood by the fake compilers used in tests: a source
// containing ERROR fails to compile.
const (
	OKShader     = "float4 main() : SV_Target { return 1; }\n"
	BrokenShader = "float4 main() : SV_Target { ERROR }\n"
)

// CreateTempProject returns an empty project directory with symlinks
// resolved, so paths compare equal to the ones the watcher canonicalizes.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// CreateShaderProject writes files (relative name to content) and a
// shaderlist.txt holding list into a new project directory.
func CreateShaderProject(t *testing.T, files map[string]string, list string) (dir, listPath string) {
	t.Helper()
	dir = CreateTempProject(t)
	for name, content := range files {
		WriteProjectFile(t, dir, name, content)
	}
	return dir, WriteProjectFile(t, dir, "shaderlist.txt", list)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteProjectFile writes content to root/rel.
func WriteProjectFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(root, rel), content)
}

// ReplaceFile writes content next to path and renames it into place, the
// way editors save, so a reader never observes a half-written file.
func ReplaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".swp")
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

// AssertFilePermissions checks the permission bits of path.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, expectedMode, info.Mode().Perm(), "permissions of %s", path)
}
