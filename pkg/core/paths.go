package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// relativeName converts a walked path into an archive entry name. The path
// must carry root as a literal prefix; paths that reached outside it (for
// instance through a symlinked root component) are rejected.
func relativeName(root, path string) (string, error) {
	root = filepath.Clean(root)
	path = filepath.Clean(path)

	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	rel, ok := strings.CutPrefix(path, prefix)
	if !ok || rel == "" {
		return "", fmt.Errorf("%w: %s (root %s)", ErrOutsideRoot, path, root)
	}
	return filepath.ToSlash(rel), nil
}

// EnclosedName validates a stored entry name and returns it as a local,
// OS-specific relative path. ok is false for names that cannot be placed
// safely under a destination root: empty names, absolute paths, names with
// a volume or NUL byte, and names whose ".." segments climb above the root.
func EnclosedName(name string) (string, bool) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", false
	}
	// Where '\' is the separator, treat it like '/'; elsewhere it is an
	// ordinary file name character.
	slashed := name
	if filepath.Separator == '\\' {
		slashed = strings.ReplaceAll(name, `\`, "/")
	}
	if strings.HasPrefix(slashed, "/") {
		return "", false
	}
	local := filepath.FromSlash(strings.TrimSuffix(slashed, "/"))
	if local == "" || !filepath.IsLocal(local) {
		return "", false
	}
	return filepath.Clean(local), true
}

// resolveUnder joins a local name onto root and verifies the result stays
// inside root.
func resolveUnder(root, local string) (string, bool) {
	dest := filepath.Join(root, local)
	rel, err := filepath.Rel(root, dest)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return dest, true
}
