package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cachebak/pkg/progress"

	"github.com/klauspost/compress/zip"
)

// Restore re-creates every entry of archive under root in stored order.
// A missing archive is a no-op. Entries whose names cannot be placed safely
// under root are skipped. Any I/O error aborts the restore; entries already
// written stay on disk.
func Restore(archive, rootDir string, opts Options) (Summary, error) {
	log := opts.logger()

	if _, err := os.Stat(archive); errors.Is(err, fs.ErrNotExist) {
		log.Info("archive not found, nothing to restore", "path", archive)
		return Summary{}, nil
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve root %s: %w", rootDir, err)
	}

	zr, err := openArchive(archive)
	if err != nil {
		return Summary{}, err
	}
	defer zr.Close()

	log.Info("start restore", "archive", archive, "root", root, "entries", len(zr.File))

	var totalSize uint64
	for _, zf := range zr.File {
		totalSize += zf.UncompressedSize64
	}
	tracker := progress.New(log, "restore", totalSize)
	tracker.Start()
	defer tracker.Stop()

	var summary Summary
	buf := make([]byte, scratchSize)
	for i, zf := range zr.File {
		local, ok := EnclosedName(zf.Name)
		if !ok {
			log.Debug("skipping unsafe entry", "index", i, "name", zf.Name)
			summary.Skipped++
			continue
		}
		dest, ok := resolveUnder(root, local)
		if !ok {
			log.Debug("skipping unsafe entry", "index", i, "name", zf.Name)
			summary.Skipped++
			continue
		}

		if zf.Comment != "" {
			log.Info("entry comment", "index", i, "name", zf.Name, "comment", zf.Comment)
		}

		if isDirName(zf.Name) {
			log.Debug("extract dir", "index", i, "dest", dest)
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return summary, fmt.Errorf("create dir %s: %w", dest, err)
			}
			summary.Dirs++
		} else {
			log.Debug("extract file", "index", i, "dest", dest, "size", zf.UncompressedSize64)
			n, err := extractFile(zf, dest, buf, tracker)
			if err != nil {
				return summary, err
			}
			summary.Files++
			summary.Bytes += n
		}

		if mode, ok := entryMode(&zf.FileHeader); ok {
			if err := applyMode(dest, mode); err != nil {
				return summary, err
			}
		}
	}

	log.Info("restore finished", "archive", archive, "files", summary.Files, "dirs", summary.Dirs, "skipped", summary.Skipped)
	return summary, nil
}

// List returns the entries of archive in stored order without extracting
// anything.
func List(archive string) ([]Entry, error) {
	zr, err := openArchive(archive)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	entries := make([]Entry, 0, len(zr.File))
	for _, zf := range zr.File {
		e := Entry{
			Name:    zf.Name,
			Kind:    EntryFile,
			Size:    zf.UncompressedSize64,
			Comment: zf.Comment,
		}
		if isDirName(zf.Name) {
			e.Kind = EntryDir
		}
		e.Mode, e.HasMode = entryMode(&zf.FileHeader)
		entries = append(entries, e)
	}
	return entries, nil
}

// openArchive opens a ZIP file with every supported codec registered
func openArchive(path string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	registerDecompressors(&zr.Reader)
	return zr, nil
}

// extractFile writes the payload of zf to dest, creating missing parents
func extractFile(zf *zip.File, dest string, buf []byte, tracker *progress.Tracker) (uint64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create parent dir for %s: %w", dest, err)
	}

	rc, err := zf.Open()
	if err != nil {
		return 0, fmt.Errorf("open entry %s: %w", zf.Name, err)
	}
	defer rc.Close()

	if err := ensureWritable(dest); err != nil {
		return 0, err
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()

	n, err := io.CopyBuffer(&progress.Writer{W: f, T: tracker}, struct{ io.Reader }{rc}, buf)
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", dest, err)
	}
	return uint64(n), nil
}

// ensureWritable grants the owner write access to an existing file left
// read-only by an earlier restore, so it can be overwritten.
func ensureWritable(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o200 != 0 {
		return nil
	}
	if err := os.Chmod(path, info.Mode().Perm()|0o200); err != nil {
		return fmt.Errorf("make %s writable: %w", path, err)
	}
	return nil
}

// isDirName reports whether a stored name marks a directory. A trailing
// backslash only counts where it is the path separator.
func isDirName(name string) bool {
	if strings.HasSuffix(name, "/") {
		return true
	}
	return filepath.Separator == '\\' && strings.HasSuffix(name, `\`)
}

// "Version made by" host ids
const (
	creatorFAT  = 0
	creatorUnix = 3
)

// MS-DOS external attribute bits
const (
	msdosReadOnly = 0x01
	msdosDir      = 0x10
)

// entryMode returns the permission bits to apply to a restored entry.
// Unix archivers store them verbatim. For MS-DOS entries they are derived
// from the attributes: 0o775 for directories, 0o664 for files, with write
// bits cleared when the read-only attribute is set. Other hosts carry none.
func entryMode(hdr *zip.FileHeader) (fs.FileMode, bool) {
	switch hdr.CreatorVersion >> 8 {
	case creatorUnix:
		if hdr.ExternalAttrs>>16 == 0 {
			return 0, false
		}
		return hdr.Mode(), true
	case creatorFAT:
		mode := fs.FileMode(0o664)
		if hdr.ExternalAttrs&msdosDir != 0 || isDirName(hdr.Name) {
			mode = fs.ModeDir | 0o775
		}
		if hdr.ExternalAttrs&msdosReadOnly != 0 {
			mode &^= 0o222
		}
		return mode, true
	default:
		return 0, false
	}
}
