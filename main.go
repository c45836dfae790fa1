package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"cachebak/lib"
	"cachebak/pkg/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	operation := os.Args[1]
	switch operation {
	case "bak":
		err = handleBackup(os.Args[2:])
	case "restore":
		err = handleRestore(os.Args[2:])
	case "list":
		err = handleList(os.Args[2:])
	case "-h", "--help", "help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintln(os.Stderr, "Invalid operation:", operation)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// printUsage prints the command-line usage information
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cachebak bak [--save-path ./cargo_bak.zip] [--compression-level 0] [--method zstd]")
	fmt.Fprintln(w, "  cachebak restore <path>")
	fmt.Fprintln(w, "  cachebak list <path>")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "bak and restore operate on $%s (git/db, registry/cache, registry/index, bin).\n", config.HomeEnv)
}

// newLogger builds the stderr logger shared by all subcommands
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newFlagSet creates a subcommand flag set carrying the shared -v flag
func newFlagSet(name string, verbose *bool) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.BoolVarP(verbose, "verbose", "v", false, "enable debug logging")
	return flagSet
}

// handleBackup handles the bak operation
func handleBackup(args []string) error {
	var savePath, method string
	var level int
	var verbose bool

	flagSet := newFlagSet("cachebak bak", &verbose)
	flagSet.StringVarP(&savePath, "save-path", "s", config.DefaultSavePath, "archive to write")
	flagSet.IntVarP(&level, "compression-level", "c", config.DefaultLevel, "codec level, 0 selects the codec default")
	flagSet.StringVarP(&method, "method", "m", config.DefaultMethod, "compression method: zstd, deflate, lz4 or store")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	m, err := lib.ParseMethod(method)
	if err != nil {
		return err
	}

	_, err = lib.Backup(os.Getenv, savePath, lib.Options{
		Method: m,
		Level:  level,
		Logger: newLogger(verbose),
	})
	return err
}

// handleRestore handles the restore operation
func handleRestore(args []string) error {
	var verbose bool

	flagSet := newFlagSet("cachebak restore", &verbose)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("restore takes exactly one archive path, got %d", flagSet.NArg())
	}

	_, err := lib.Restore(os.Getenv, flagSet.Arg(0), lib.Options{Logger: newLogger(verbose)})
	return err
}

// handleList handles the list operation
func handleList(args []string) error {
	var verbose bool

	flagSet := newFlagSet("cachebak list", &verbose)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("list takes exactly one archive path, got %d", flagSet.NArg())
	}

	entries, err := lib.List(flagSet.Arg(0))
	if err != nil {
		return err
	}
	newLogger(verbose).Debug("listed archive", "path", flagSet.Arg(0), "entries", len(entries))

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		mode := "-"
		if e.HasMode {
			mode = e.Mode.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Kind, mode, humanize.IBytes(e.Size), e.Name)
	}
	return tw.Flush()
}
