//go:build !windows

package core

import (
	"fmt"
	"io/fs"
	"os"
)

// applyMode sets the stored permission bits on a restored file or directory.
func applyMode(path string, mode fs.FileMode) error {
	if err := os.Chmod(path, mode.Perm()|mode&(fs.ModeSetuid|fs.ModeSetgid|fs.ModeSticky)); err != nil {
		return fmt.Errorf("set mode %s: %w", path, err)
	}
	return nil
}
