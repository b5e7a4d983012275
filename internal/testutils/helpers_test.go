package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateShaderProject(t *testing.T) {
	dir, list := CreateShaderProject(t, map[string]string{
		"src/a.hlsl":           OKShader,
		"include/common.hlsli": "",
	}, "src/a.hlsl main ps bin/a\n")

	assert.Equal(t, filepath.Join(dir, "shaderlist.txt"), list)
	assert.FileExists(t, filepath.Join(dir, "src", "a.hlsl"))
	assert.FileExists(t, filepath.Join(dir, "include", "common.hlsli"))

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, resolved)
}

func TestReplaceFile(t *testing.T) {
	dir := CreateTempProject(t)
	path := WriteProjectFile(t, dir, "a.hlsl", OKShader)

	ReplaceFile(t, path, BrokenShader)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, BrokenShader, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	AssertFilePermissions(t, path, 0o644)
}
