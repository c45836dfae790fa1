// Package lib provides the environment-driven entry points used by the
// cachebak command. It re-exports the core types and resolves the root
// directory from CARGO_HOME before delegating to the core package.
package lib

import (
	"cachebak/pkg/config"
	"cachebak/pkg/core"
)

// Types re-exported from core
type (
	Source  = core.Source
	Entry   = core.Entry
	Options = core.Options
	Summary = core.Summary
	Method  = core.Method
)

// Re-export entry kinds
const (
	EntryFile = core.EntryFile
	EntryDir  = core.EntryDir
)

// Getenv looks up environment variables. Tests replace it.
type Getenv func(string) string

// Backup archives the default cache areas under CARGO_HOME into dest.
func Backup(getenv Getenv, dest string, opts Options) (Summary, error) {
	cfg, err := config.Load(getenv)
	if err != nil {
		return Summary{}, err
	}
	return core.Backup(cfg.Home, dest, core.DefaultSources, opts)
}

// Restore expands archive under CARGO_HOME. A missing archive is a no-op,
// but CARGO_HOME must still be set.
func Restore(getenv Getenv, archive string, opts Options) (Summary, error) {
	cfg, err := config.Load(getenv)
	if err != nil {
		return Summary{}, err
	}
	return core.Restore(archive, cfg.Home, opts)
}

// List returns the entries stored in archive
func List(archive string) ([]Entry, error) {
	return core.List(archive)
}

// ParseMethod is a wrapper around core.ParseMethod
func ParseMethod(name string) (Method, error) {
	return core.ParseMethod(name)
}
