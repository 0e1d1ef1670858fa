// SPDX-License-Identifier: MPL-2.0

package buildscript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// repoMarker marks the root of a repository, where the search stops.
const repoMarker = ".git"

// ErrNoBuildScript is the sentinel error wrapped by NotFoundError.
var ErrNoBuildScript = errors.New("no build script found")

// NotFoundError reports an unsuccessful search.
type NotFoundError struct {
	Filename string
	// StartDir and StopDir are the first and last directories searched.
	StartDir string
	StopDir  string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found in %s or its parents up to %s", e.Filename, e.StartDir, e.StopDir)
}

// Unwrap returns ErrNoBuildScript for errors.Is compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNoBuildScript }

// Find looks for filename in startDir and then in each parent directory. The
// search ends at the first directory holding a .git entry, or at the
// filesystem root. It returns the absolute path of the file.
func Find(startDir, filename string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	start := dir
	for {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		if exists(filepath.Join(dir, repoMarker)) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", &NotFoundError{Filename: filename, StartDir: start, StopDir: dir}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
