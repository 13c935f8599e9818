package ppm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/ppmfilter/internal/errs"
	"github.com/gogpu/ppmfilter/internal/grid"
)

// Load reads a P3 image from the given file path.
func Load(path string) (*grid.Grid, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &errs.OpError{Op: "ppm.load", Kind: errs.KindIO, Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	g, err := Decode(f)
	if err != nil {
		return nil, errs.WithPath(err, path)
	}
	return g, nil
}

// Save writes g as a P3 image to path, creating or replacing the file.
//
// The image is written to a temporary file in the destination directory
// and renamed into place, so a failed Save never leaves a partial image
// behind.
func Save(path string, g *grid.Grid) error {
	path = filepath.Clean(path)

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return saveError(path, fmt.Errorf("create file: %w", err))
	}
	tmp := f.Name()

	if err := Encode(f, g); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return saveError(path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return saveError(path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return saveError(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return saveError(path, err)
	}
	return nil
}

func saveError(path string, err error) error {
	return &errs.OpError{Op: "ppm.save", Kind: errs.KindIO, Path: path, Err: err}
}
