package compiler

import (
	"os"
	"path/filepath"

	"github.com/conneroisu/dxcwatch/internal/errors"
)

// WriteOutput writes blob to path, creating missing directories. The data
// goes to a temporary file in the destination directory first and is then
// renamed over path, so readers never observe a partial binary.
func WriteOutput(blob []byte, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError(errors.CodeWriteFailed, "cannot create output directory", err).WithPath(dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.NewIOError(errors.CodeWriteFailed, "cannot create temporary file", err).WithPath(path)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewIOError(errors.CodeWriteFailed, "cannot write shader binary", err).WithPath(path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewIOError(errors.CodeWriteFailed, "cannot write shader binary", err).WithPath(path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return errors.NewIOError(errors.CodeWriteFailed, "cannot set permissions", err).WithPath(path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.NewIOError(errors.CodeWriteFailed, "cannot replace shader binary", err).WithPath(path)
	}
	return nil
}
