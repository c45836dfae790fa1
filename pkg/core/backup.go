package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"cachebak/pkg/progress"

	"github.com/klauspost/compress/zip"
)

// Backup walks every existing source under root and writes each regular file
// into a ZIP archive at dest, named relative to root. Missing sources are
// skipped. Any I/O error aborts the backup and leaves dest incomplete.
func Backup(rootDir, dest string, sources []Source, opts Options) (Summary, error) {
	log := opts.logger()

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve root %s: %w", rootDir, err)
	}
	log.Info("start backup", "root", root, "dest", dest, "method", string(opts.Method), "level", opts.Level)

	tasks, skipped, err := collectSources(root, sources, opts)
	if err != nil {
		return Summary{}, err
	}

	tracker := progress.New(log, "backup", calculateTotalSize(tasks))
	tracker.Start()
	defer tracker.Stop()

	summary, err := writeArchive(tasks, dest, opts, tracker)
	if err != nil {
		return summary, err
	}
	summary.Skipped = skipped
	log.Info("backup finished", "dest", dest, "files", summary.Files, "bytes", summary.Bytes, "skipped", skipped)
	return summary, nil
}

// calculateTotalSize sums the sizes of all files to be archived
func calculateTotalSize(tasks []fileTask) uint64 {
	var totalSize uint64
	for _, task := range tasks {
		totalSize += uint64(task.Info.Size())
	}
	return totalSize
}

// collectSources walks the sources in order and returns the files to archive
// together with the number of filesystem objects that were ignored.
func collectSources(root string, sources []Source, opts Options) ([]fileTask, int, error) {
	log := opts.logger()

	var tasks []fileTask
	var skipped int
	for _, src := range sources {
		dir := filepath.Join(root, filepath.FromSlash(src.Path))
		info, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("source missing, skipping", "source", src.Label, "path", dir)
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("stat source %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, 0, fmt.Errorf("source %s: %w: %s", src.Label, ErrNotDirectory, dir)
		}

		found, n, err := collectDirEntries(root, dir, opts)
		if err != nil {
			return nil, 0, fmt.Errorf("collect source %s: %w", src.Label, err)
		}
		log.Debug("collected source", "source", src.Label, "files", len(found), "skipped", n)
		tasks = append(tasks, found...)
		skipped += n
	}
	return tasks, skipped, nil
}

// collectDirEntries gathers all regular files under dir with names relative
// to root. dir itself may be a symlink to a directory; entries keep names
// under dir. Nested symlinks to regular files are followed; everything else
// that is not a regular file or directory is skipped.
func collectDirEntries(root, dir string, opts Options) ([]fileTask, int, error) {
	log := opts.logger()

	walkRoot, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve source %s: %w", dir, err)
	}

	var tasks []fileTask
	var skipped int
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		name, err := relativeName(root, filepath.Join(dir, rel))
		if err != nil {
			return err
		}

		var info fs.FileInfo
		switch {
		case d.Type().IsRegular():
			info, err = d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				log.Debug("skipping symlink", "path", path)
				skipped++
				return nil
			}
			info = target
		default:
			log.Debug("skipping special file", "path", path, "type", d.Type().String())
			skipped++
			return nil
		}

		tasks = append(tasks, fileTask{Name: name, FilePath: path, Info: info})
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walk directory %s: %w", dir, err)
	}
	return tasks, skipped, nil
}

// writeArchive creates dest and streams every task into it
func writeArchive(tasks []fileTask, dest string, opts Options, tracker *progress.Tracker) (Summary, error) {
	log := opts.logger()

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(dest)
	if err != nil {
		return Summary{}, fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	method, err := registerCompressor(zw, opts.Method, opts.Level)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	buf := make([]byte, scratchSize)
	for _, task := range tasks {
		log.Debug("write file", "name", task.Name)
		n, err := writeEntry(zw, task, method, buf, tracker)
		if err != nil {
			return summary, err
		}
		summary.Files++
		summary.Bytes += n
	}

	if err := zw.Close(); err != nil {
		return summary, fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return summary, fmt.Errorf("close output: %w", err)
	}
	return summary, nil
}

// writeEntry stores one file, copying through the shared scratch buffer
func writeEntry(zw *zip.Writer, task fileTask, method uint16, buf []byte, tracker *progress.Tracker) (uint64, error) {
	hdr, err := zip.FileInfoHeader(task.Info)
	if err != nil {
		return 0, fmt.Errorf("header for %s: %w", task.FilePath, err)
	}
	hdr.Name = task.Name
	hdr.Method = method

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, fmt.Errorf("create entry %s: %w", task.Name, err)
	}

	src, err := os.Open(task.FilePath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", task.FilePath, err)
	}
	defer src.Close()

	// Hide os.File's WriterTo so the copy goes through buf.
	n, err := io.CopyBuffer(&progress.Writer{W: w, T: tracker}, struct{ io.Reader }{src}, buf)
	clear(buf)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", task.Name, err)
	}
	return uint64(n), nil
}
