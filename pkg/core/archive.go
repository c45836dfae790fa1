package core

import (
	"errors"
	"io/fs"
	"log/slog"
)

// Sentinel errors returned by the backup and restore pipelines
var (
	ErrOutsideRoot   = errors.New("path is not under root")
	ErrNotDirectory  = errors.New("source is not a directory")
	ErrInvalidLevel  = errors.New("invalid compression level")
	ErrUnknownMethod = errors.New("unknown compression method")
)

// scratchSize is the size of the copy buffer reused across entries
const scratchSize = 32 * 1024

// Source is one optional cache area under the root
type Source struct {
	Label string // Short name used in logs
	Path  string // Slash-separated path relative to the root
}

// DefaultSources lists the cache areas collected by a backup, in archive order.
var DefaultSources = []Source{
	{Label: "git-db", Path: "git/db"},
	{Label: "registry-cache", Path: "registry/cache"},
	{Label: "registry-index", Path: "registry/index"},
	{Label: "bin", Path: "bin"},
}

// EntryKind distinguishes directory markers from files
type EntryKind byte

const (
	EntryFile EntryKind = 0 // File with a payload
	EntryDir  EntryKind = 1 // Directory marker, name ends with '/'
)

func (k EntryKind) String() string {
	if k == EntryDir {
		return "dir"
	}
	return "file"
}

// Entry describes one stored unit of an archive
type Entry struct {
	Name    string      // Slash-separated name relative to the root
	Kind    EntryKind   // File or directory marker
	Size    uint64      // Uncompressed payload size
	Mode    fs.FileMode // Permission bits, valid only when HasMode is set
	HasMode bool        // Whether the entry carries unix permission bits
	Comment string      // Free-text entry comment
}

// Options configures Backup and Restore
type Options struct {
	Method Method       // Compression method for new entries, defaults to MethodZstd
	Level  int          // Codec level, 0 selects the codec default
	Logger *slog.Logger // Defaults to slog.Default()
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Summary reports what an operation did
type Summary struct {
	Files   int    // Files written to the archive or the filesystem
	Dirs    int    // Directory markers restored
	Bytes   uint64 // Uncompressed bytes processed
	Skipped int    // Entries or filesystem objects ignored
}

// fileTask is a file collected during the walk
type fileTask struct {
	Name     string      // Entry name relative to the root
	FilePath string      // Full path on disk
	Info     fs.FileInfo // Info of the file content (symlink target when followed)
}
