package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/clubreport/pkg/errors"
)

// Directory writes artifacts into a local directory.
type Directory struct {
	Dir string
}

// Name implements [Deliverer].
func (d Directory) Name() string { return "dir:" + d.Dir }

// Path returns where the artifact lands.
func (d Directory) Path(a Artifact) string { return filepath.Join(d.Dir, a.Name) }

// Deliver writes a temporary file and renames it into place, so an existing
// report is replaced only by a complete one.
func (d Directory) Deliver(_ context.Context, a Artifact) error {
	if err := errors.ValidateFileName(a.Name); err != nil {
		return err
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDeliveryFailed, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+a.Name+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDeliveryFailed, err, "create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, a.Name))
}
