//go:build unix

package cmd

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/dxcwatch/internal/compiler"
)

func TestCompileCancelledByInterrupt(t *testing.T) {
	started := make(chan struct{})
	original := newDXC
	t.Cleanup(func() { newDXC = original })
	newDXC = func(opts compiler.Options) (*compiler.DXC, error) {
		opts.Runner = func(ctx context.Context, _ string, _ []string) ([]byte, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return compiler.NewDXC(opts)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := execute(t, "compile", "lit.hlsl", "main", "ps", "out/lit")
		errc <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("dxc was never invoked")
	}
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compilation cancelled")
	case <-time.After(5 * time.Second):
		t.Fatal("compile did not stop on interrupt")
	}
}
