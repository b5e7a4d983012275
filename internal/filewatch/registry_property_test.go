//go:build property

package filewatch

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRegistryReferenceCounting checks that any sequence of watch and
// release operations leaves exactly one Monitor per directory that still has
// a live handle, and none once every handle is released.
func TestRegistryReferenceCounting(t *testing.T) {
	properties := gopter.NewProperties(nil)

	root := tempDir(t)
	var files []string
	for d := 0; d < 3; d++ {
		for f := 0; f < 3; f++ {
			files = append(files, touch(t, filepath.Join(root, fmt.Sprintf("d%d", d), fmt.Sprintf("f%d.hlsl", f))))
		}
	}

	properties.Property("monitors track live directories", prop.ForAll(
		func(ops []int, unique []bool) bool {
			r := NewRegistry(Options{Backend: newFakeBackend()})
			defer r.Close()

			var live []*Handle
			for i, op := range ops {
				if op < 0 && len(live) > 0 {
					idx := -op % len(live)
					live[idx].Release()
					live = append(live[:idx], live[idx+1:]...)
					continue
				}
				h, err := r.WatchFile(files[abs(op)%len(files)], unique[i%len(unique)])
				if err != nil {
					return false
				}
				live = append(live, h)
			}

			wantDirs := map[string]bool{}
			for _, h := range live {
				wantDirs[filepath.Dir(h.Path())] = true
			}
			stats := r.Stats()
			if stats.Monitors != len(wantDirs) {
				return false
			}
			for dir := range wantDirs {
				if stats.Directories[dir] == 0 {
					return false
				}
			}

			ReleaseAll(live)
			return r.Stats().Monitors == 0
		},
		gen.SliceOf(gen.IntRange(-20, 20)),
		gen.SliceOfN(4, gen.Bool()),
	))

	properties.TestingRun(t)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
