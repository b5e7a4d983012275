package filewatch

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/conneroisu/dxcwatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventually = 2 * time.Second

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("// shader\n"), 0o644))
	return path
}

func newFakeRegistry(t *testing.T) (*Registry, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	r := NewRegistry(Options{Backend: backend})
	t.Cleanup(func() { _ = r.Close() })
	return r, backend
}

func TestWatchFileAliasesSamePath(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))

	h1, err := r.WatchFile(a, false)
	require.NoError(t, err)
	h2, err := r.WatchFile(filepath.Join(dir, ".", "a.hlsl"), false)
	require.NoError(t, err)

	assert.Same(t, h1.flag, h2.flag)
	assert.Equal(t, 2, h1.flag.refs)
	assert.Equal(t, int32(1), backend.opened.Load())

	stats := r.Stats()
	assert.Equal(t, 1, stats.Monitors)
	assert.Equal(t, 1, stats.Entries)

	backend.notifier(dir).send(a)
	require.Eventually(t, h1.IsChanged, eventually, time.Millisecond)
	assert.True(t, h2.IsChanged())

	h2.Clear()
	assert.False(t, h1.IsChanged())
}

func TestWatchFileForceUnique(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))

	h1, err := r.WatchFile(a, false)
	require.NoError(t, err)
	h2, err := r.WatchFile(a, true)
	require.NoError(t, err)

	assert.NotSame(t, h1.flag, h2.flag)
	assert.Equal(t, 1, r.Stats().Monitors)
	assert.Equal(t, 2, r.Stats().Entries)

	backend.notifier(dir).send(a)
	require.Eventually(t, func() bool { return h1.IsChanged() && h2.IsChanged() }, eventually, time.Millisecond)

	h1.Clear()
	assert.False(t, h1.IsChanged())
	assert.True(t, h2.IsChanged(), "clearing one unique flag must not clear the other")
}

func TestSiblingsShareMonitorButNotFlags(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))
	b := touch(t, filepath.Join(dir, "b.hlsl"))

	ha, err := r.WatchFile(a, false)
	require.NoError(t, err)
	hb, err := r.WatchFile(b, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.opened.Load())

	n := backend.notifier(dir)
	n.send(b)
	require.Eventually(t, hb.IsChanged, eventually, time.Millisecond)
	assert.False(t, ha.IsChanged())
}

func TestExactPathMatching(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))

	h, err := r.WatchFile(a, false)
	require.NoError(t, err)

	n := backend.notifier(dir)
	// Names sharing a suffix or prefix with the watched file do not match.
	n.send(filepath.Join(dir, "aa.hlsl"), filepath.Join(dir, "a.hlsli"), filepath.Join(dir, "xa.hlsl"))
	n.send(filepath.Join(dir, "a.hlsl"))
	require.Eventually(t, h.IsChanged, eventually, time.Millisecond)

	h.Clear()
	n.send(filepath.Join(dir, "a.hlsl.tmp"))
	// A following exact event proves the previous batch was processed.
	other := touch(t, filepath.Join(dir, "z.hlsl"))
	hz, err := r.WatchFile(other, false)
	require.NoError(t, err)
	n.send(other)
	require.Eventually(t, hz.IsChanged, eventually, time.Millisecond)
	assert.False(t, h.IsChanged())
}

func TestReleaseTearsDownMonitor(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))
	b := touch(t, filepath.Join(dir, "b.hlsl"))

	ha, err := r.WatchFile(a, false)
	require.NoError(t, err)
	hb, err := r.WatchFile(b, false)
	require.NoError(t, err)
	n := backend.notifier(dir)

	ha.Release()
	assert.Equal(t, 1, r.Stats().Monitors)
	assert.Equal(t, 1, r.Stats().Entries)
	assert.False(t, n.closed.Load())

	hb.Release()
	// Teardown is synchronous: the observer has exited before Release returns.
	assert.True(t, n.closed.Load())
	assert.Equal(t, 0, r.Stats().Monitors)

	// Releasing twice is harmless.
	hb.Release()
	assert.Equal(t, 0, r.Stats().Entries)
}

func TestReleaseWithSharedReferences(t *testing.T) {
	r, _ := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))

	h1, err := r.WatchFile(a, false)
	require.NoError(t, err)
	h2 := h1.Retain()
	require.NotNil(t, h2)

	h1.Release()
	assert.Equal(t, 1, r.Stats().Monitors)
	assert.Nil(t, h1.Retain(), "a released handle cannot be retained")

	h2.Release()
	assert.Equal(t, 0, r.Stats().Monitors)
}

func TestReleasedFlagIsNotAliased(t *testing.T) {
	r, _ := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))
	keep := touch(t, filepath.Join(dir, "keep.hlsl"))

	hk, err := r.WatchFile(keep, false)
	require.NoError(t, err)
	defer hk.Release()

	h1, err := r.WatchFile(a, false)
	require.NoError(t, err)
	h1.Release()

	h2, err := r.WatchFile(a, false)
	require.NoError(t, err)
	defer h2.Release()
	assert.NotSame(t, h1.flag, h2.flag)
}

func TestSeparateDirectoriesGetSeparateMonitors(t *testing.T) {
	r, backend := newFakeRegistry(t)
	root := tempDir(t)
	a := touch(t, filepath.Join(root, "a.hlsl"))
	nested := touch(t, filepath.Join(root, "sub", "a.hlsl"))

	ha, err := r.WatchFile(a, false)
	require.NoError(t, err)
	hn, err := r.WatchFile(nested, false)
	require.NoError(t, err)

	stats := r.Stats()
	assert.Equal(t, 2, stats.Monitors)
	assert.Equal(t, 1, stats.Directories[root])
	assert.Equal(t, 1, stats.Directories[filepath.Join(root, "sub")])

	// Watching is flat: an event in the parent does not reach the child.
	backend.notifier(root).send(a)
	require.Eventually(t, ha.IsChanged, eventually, time.Millisecond)
	assert.False(t, hn.IsChanged())

	dirs := r.Monitors()
	require.Len(t, dirs, 2)
	assert.Equal(t, root, dirs[0].Dir)
}

func TestWatchFileMissing(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)

	h, err := r.WatchFile(filepath.Join(dir, "missing.hlsl"), false)
	assert.Nil(t, h)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, errors.ErrorTypeWatch, errors.TypeOf(err))
	assert.Equal(t, int32(0), backend.opened.Load())
}

func TestWatchFileOpenFailure(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))

	backend.openErr = stderrors.New("boom")
	h, err := r.WatchFile(a, false)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, errors.ErrWatchCreateFailed)
	assert.Equal(t, 0, r.Stats().Monitors)

	backend.openErr = syscall.ENOSPC
	_, err = r.WatchFile(a, false)
	assert.ErrorIs(t, err, errors.ErrWatchLimit)
	assert.ErrorIs(t, err, syscall.ENOSPC)
}

func TestOverflowMarksEverything(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	ha, err := r.WatchFile(touch(t, filepath.Join(dir, "a.hlsl")), false)
	require.NoError(t, err)
	hb, err := r.WatchFile(touch(t, filepath.Join(dir, "b.hlsl")), false)
	require.NoError(t, err)

	n := backend.notifier(dir)
	n.fail(stderrors.New("transient"))
	n.fail(ErrEventOverflow)
	require.Eventually(t, func() bool { return ha.IsChanged() && hb.IsChanged() }, eventually, time.Millisecond)
}

func TestRegistryClose(t *testing.T) {
	r, backend := newFakeRegistry(t)
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))

	h, err := r.WatchFile(a, false)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.True(t, backend.notifier(dir).closed.Load())

	// Handles outlive the registry and stay inert.
	h.Release()
	_, err = r.WatchFile(a, false)
	assert.ErrorIs(t, err, errors.ErrRegistryClosed)
}

func TestNilHandle(t *testing.T) {
	var h *Handle
	assert.False(t, h.IsChanged())
	assert.Empty(t, h.Path())
	assert.Nil(t, h.Retain())
	h.Clear()
	h.Release()
	ReleaseAll([]*Handle{nil, h})
}

func TestBackendByName(t *testing.T) {
	for _, name := range []string{"", "fsnotify", "FSNotify", "inotify", "notify"} {
		b, err := BackendByName(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, b.Name())
	}
	_, err := BackendByName("kqueue")
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
}

func TestFSNotifyDetectsWrites(t *testing.T) {
	r := NewRegistry(Options{})
	defer r.Close()

	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))
	b := touch(t, filepath.Join(dir, "b.hlsl"))

	ha, err := r.WatchFile(a, false)
	require.NoError(t, err)
	hb, err := r.WatchFile(b, false)
	require.NoError(t, err)
	assert.Equal(t, a, ha.Path())

	require.NoError(t, os.WriteFile(a, []byte("float4 main() : SV_Target { return 1; }\n"), 0o644))
	require.Eventually(t, ha.IsChanged, eventually, 5*time.Millisecond)

	ha.Clear()
	assert.False(t, ha.IsChanged())
	assert.False(t, hb.IsChanged())

	ha.Release()
	hb.Release()
	assert.Equal(t, 0, r.Stats().Monitors)
}

func TestDefaultRegistry(t *testing.T) {
	dir := tempDir(t)
	a := touch(t, filepath.Join(dir, "a.hlsl"))

	h, err := WatchFile(a, false)
	require.NoError(t, err)
	assert.Same(t, Default(), h.registry)
	assert.Equal(t, 1, Default().Stats().Directories[dir])
	h.Release()
	assert.Zero(t, Default().Stats().Directories[dir])
}
