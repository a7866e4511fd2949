// Package fsx holds small filesystem helpers shared by the batch steps
package fsx

import (
	"io"
	"os"
	"path/filepath"

	perr "churnops/internal/platform/errors"
)

// WriteFileAtomic writes through a temp file in the target directory and renames it
// into place, so readers never see a partial file
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "create temp for %s", path)
	}
	name := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = tmp.Close()
			_ = os.Remove(name)
		}
	}()
	if err := write(tmp); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "close %s", path)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "rename %s", path)
	}
	ok = true
	return nil
}
