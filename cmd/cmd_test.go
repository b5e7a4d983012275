package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/dxcwatch/internal/config"
	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/rebuild"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSummaryLine(t *testing.T) {
	tests := []struct {
		summary rebuild.Summary
		want    string
	}{
		{rebuild.Summary{Binaries: 1}, "1 shader, 0 errors"},
		{rebuild.Summary{Binaries: 2, Libraries: 1, Errors: 1}, "3 shaders, 1 error"},
		{rebuild.Summary{Binaries: 4, Errors: 2}, "4 shaders, 2 errors"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, summaryLine(tt.summary))
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "dxcwatch "), out)
}

func TestVersionCommandRejectsFormat(t *testing.T) {
	_, err := execute(t, "version", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	// Flags keep their value on the shared command.
	require.NoError(t, versionCmd.Flags().Set("format", "text"))
}

func TestBuildMissingShaderlist(t *testing.T) {
	_, err := execute(t, "build", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read shaderlist")
}

func TestBuildEmptyShaderlist(t *testing.T) {
	list := filepath.Join(t.TempDir(), "shaderlist.txt")
	require.NoError(t, os.WriteFile(list, []byte("# nothing yet\n"), 0o644))

	out, err := execute(t, "build", list)
	require.NoError(t, err)
	assert.Equal(t, "0 shaders, 0 errors\n", out)
}

func TestBuildFailurePrintsSummaryOnce(t *testing.T) {
	list := filepath.Join(t.TempDir(), "shaderlist.txt")
	require.NoError(t, os.WriteFile(list, []byte("missing.hlsl main ps out/missing\n"), 0o644))

	out, err := execute(t, "build", list)
	require.ErrorIs(t, err, errBuildFailed)
	assert.Equal(t, "1 shader, 1 error\n", out)
	assert.NotContains(t, err.Error(), "1 shader")
}

func TestCompileRejectsTarget(t *testing.T) {
	_, err := execute(t, "compile", "a.hlsl", "main", "rt", "out/a")
	require.Error(t, err)
}

func TestCompileArgs(t *testing.T) {
	_, err := execute(t, "compile", "a.hlsl", "main")
	require.Error(t, err)
}

func TestWatchStopsOnCancel(t *testing.T) {
	list := filepath.Join(t.TempDir(), "shaderlist.txt")
	require.NoError(t, os.WriteFile(list, []byte("\n"), 0o644))

	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	cfg.Notify.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var summary rebuild.Summary
	var runErr error
	go func() {
		defer close(done)
		summary, runErr = watch(ctx, cfg, logging.Discard(), list)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	require.NoError(t, runErr)
	assert.Equal(t, 0, summary.Units())
}

func TestWatchUnknownBackend(t *testing.T) {
	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	cfg.Watch.Backend = "carrier-pigeon"

	_, err = watch(context.Background(), cfg, logging.Discard(), "shaderlist.txt")
	require.Error(t, err)
}
