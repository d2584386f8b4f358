// Package fixture generates the matrix input files the benchmark kernel
// reads. Generation is deterministic per shape so every sweep, on every
// machine, measures against identical inputs.
package fixture

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"

	"github.com/pdcrl/sweepbench/internal/fsutil"
)

// Path returns the canonical fixture location for a rows x cols matrix.
func Path(dir string, rows, cols int) string {
	return filepath.Join(dir, fmt.Sprintf("matrix_%dx%d.txt", rows, cols))
}

// Ensure generates the fixture for a rows x cols matrix unless it already
// exists, and returns its path. Values are uniform in [-10, 10), written as
// %.6f, space-separated, one matrix row per line. The seed derives from the
// shape, so regeneration reproduces the file byte for byte.
func Ensure(fsys fsutil.FileSystem, dir string, rows, cols int) (string, error) {
	path := Path(dir, rows, cols)
	if fsys.Exists(path) {
		return path, nil
	}

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create fixture dir %s: %w", dir, err)
	}

	log.Printf("[fixture] generating %dx%d matrix at %s", rows, cols, path)

	f, err := fsys.Create(path)
	if err != nil {
		return "", fmt.Errorf("create fixture %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	rng := rand.New(rand.NewSource(int64(rows)*100000 + int64(cols)))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				if err := w.WriteByte(' '); err != nil {
					f.Close()
					return "", fmt.Errorf("write fixture %s: %w", path, err)
				}
			}
			if _, err := fmt.Fprintf(w, "%.6f", 20*rng.Float64()-10); err != nil {
				f.Close()
				return "", fmt.Errorf("write fixture %s: %w", path, err)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return "", fmt.Errorf("write fixture %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush fixture %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close fixture %s: %w", path, err)
	}
	return path, nil
}
