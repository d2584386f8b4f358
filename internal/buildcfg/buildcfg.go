// Package buildcfg rewrites the compile-time configuration of the benchmark
// kernel: `#define NAME VALUE` macro lines in the kernel source and the
// `MAIN_SRC = file` line in the build descriptor. Every rewrite must match
// exactly one line; zero or multiple matches abort the sweep with a
// MutationError rather than silently benchmarking a stale configuration.
package buildcfg

import (
	"fmt"
	"regexp"

	"github.com/pdcrl/sweepbench/internal/fsutil"
)

// MutationError reports a configuration rewrite whose target pattern did not
// match exactly one line of the file.
type MutationError struct {
	Path    string
	Target  string
	Matches int
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("rewrite %s: %q matched %d lines, want exactly 1", e.Path, e.Target, e.Matches)
}

// SetMacro rewrites the `#define name ...` line in the file at path so the
// macro carries value. The rewrite is idempotent; applying the same value
// twice leaves the file unchanged.
func SetMacro(fsys fsutil.FileSystem, path, name, value string) error {
	pattern := regexp.MustCompile(`(?m)^[ \t]*#define[ \t]+` + regexp.QuoteMeta(name) + `\b.*$`)
	return rewriteLine(fsys, path, "#define "+name, pattern, fmt.Sprintf("#define %s %s", name, value))
}

// SetActiveSource rewrites the `MAIN_SRC = ...` line of the build descriptor
// at path to select source as the kernel translation unit.
func SetActiveSource(fsys fsutil.FileSystem, path, source string) error {
	pattern := regexp.MustCompile(`(?m)^MAIN_SRC[ \t]*=.*$`)
	return rewriteLine(fsys, path, "MAIN_SRC", pattern, "MAIN_SRC = "+source)
}

// rewriteLine replaces the single line matching pattern with replacement.
// All other bytes of the file are preserved.
func rewriteLine(fsys fsutil.FileSystem, path, target string, pattern *regexp.Regexp, replacement string) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	matches := pattern.FindAllIndex(data, -1)
	if len(matches) != 1 {
		return &MutationError{Path: path, Target: target, Matches: len(matches)}
	}

	out := pattern.ReplaceAll(data, []byte(replacement))
	if err := fsys.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Macro is one compile-time parameter assignment.
type Macro struct {
	Name  string
	Value string
}

// BuildConfiguration is the complete compile-time state of one benchmark
// build: the active kernel source plus every macro value. It exists only in
// memory until Materialize writes it into the kernel tree, so sweep logic
// can be tested without carrying hidden file state between points.
type BuildConfiguration struct {
	// Source is the translation unit the build descriptor selects.
	// Empty leaves the descriptor untouched.
	Source string

	// Macros are applied to the macro file in declaration order.
	Macros []Macro
}

// Materialize writes the configuration into the kernel tree: the descriptor
// at makefilePath and the macro definitions at macroPath. It stops at the
// first failed rewrite.
func (c BuildConfiguration) Materialize(fsys fsutil.FileSystem, macroPath, makefilePath string) error {
	if c.Source != "" {
		if err := SetActiveSource(fsys, makefilePath, c.Source); err != nil {
			return err
		}
	}
	for _, m := range c.Macros {
		if err := SetMacro(fsys, macroPath, m.Name, m.Value); err != nil {
			return err
		}
	}
	return nil
}
