//go:build windows

package core

import "io/fs"

// applyMode is a no-op: unix permission bits have no Windows equivalent.
func applyMode(path string, mode fs.FileMode) error {
	return nil
}
