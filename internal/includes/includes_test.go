package includes

import (
	"path/filepath"
	"testing"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/conneroisu/dxcwatch/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTransitive(t *testing.T) {
	root := t.TempDir()
	src := testutils.WriteProjectFile(t, root, "src/blit.hlsl", `#include "common.hlsli"
#include <lib/math.hlsli>
float4 main() : SV_Target { return 0; }
`)
	common := testutils.WriteProjectFile(t, root, "src/common.hlsli", "  #  include \"bindings.hlsli\"\n")
	bindings := testutils.WriteProjectFile(t, root, "src/bindings.hlsli", "// nothing\n")
	math := testutils.WriteProjectFile(t, root, "shared/lib/math.hlsli", `#include "constants.hlsli"`)
	constants := testutils.WriteProjectFile(t, root, "shared/lib/constants.hlsli", "")

	got, err := Scan(src, []string{filepath.Join(root, "shared")})
	require.NoError(t, err)
	assert.Equal(t, []string{common, bindings, math, constants}, got)
}

func TestScanLocalDirectoryWinsOverSearchDirs(t *testing.T) {
	root := t.TempDir()
	src := testutils.WriteProjectFile(t, root, "src/a.hlsl", `#include "x.hlsli"`)
	local := testutils.WriteProjectFile(t, root, "src/x.hlsli", "")
	testutils.WriteProjectFile(t, root, "inc/x.hlsli", "")

	got, err := Scan(src, []string{filepath.Join(root, "inc")})
	require.NoError(t, err)
	assert.Equal(t, []string{local}, got)
}

func TestScanCyclesAndDuplicates(t *testing.T) {
	root := t.TempDir()
	a := testutils.WriteProjectFile(t, root, "a.hlsl", "#include \"b.hlsli\"\n#include \"c.hlsli\"\n")
	b := testutils.WriteProjectFile(t, root, "b.hlsli", "#include \"c.hlsli\"\n#include \"a.hlsl\"\n")
	c := testutils.WriteProjectFile(t, root, "c.hlsli", "#include \"b.hlsli\"\n")

	got, err := Scan(a, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{b, c}, got)
}

func TestScanSkipsUnresolvedAndCommented(t *testing.T) {
	root := t.TempDir()
	src := testutils.WriteProjectFile(t, root, "a.hlsl", `#include "missing.hlsli"
// #include "commented.hlsli"
/* #include "block.hlsli"
   #include "block2.hlsli" */
#include "real.hlsli" /* trailing */
`)
	testutils.WriteProjectFile(t, root, "commented.hlsli", "")
	testutils.WriteProjectFile(t, root, "block.hlsli", "")
	testutils.WriteProjectFile(t, root, "block2.hlsli", "")
	real := testutils.WriteProjectFile(t, root, "real.hlsli", "")

	got, err := Scan(src, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{real}, got)
}

func TestScanMissingSource(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope.hlsl"), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeIO, errors.TypeOf(err))
}

func TestStripBlockComments(t *testing.T) {
	line, in := stripBlockComments("a /* b */ c /* d", false)
	assert.Equal(t, "a  c ", line)
	assert.True(t, in)

	line, in = stripBlockComments("still */ out", true)
	assert.Equal(t, " out", line)
	assert.False(t, in)
}

func TestScannerType(t *testing.T) {
	root := t.TempDir()
	src := testutils.WriteProjectFile(t, root, "a.hlsl", "")
	got, err := Scanner{}.Scan(src, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
