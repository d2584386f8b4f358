// Package experiments assembles the sweep engine into the benchmark suite:
// parameter tuning, scalability, and throughput, plus a single-configuration
// mode driven by a JSON file. Each experiment builds its manifest, runs the
// controller, and publishes CSV, sqlite, and plot output.
package experiments

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdcrl/sweepbench/internal/buildcfg"
	"github.com/pdcrl/sweepbench/internal/fixture"
	"github.com/pdcrl/sweepbench/internal/fsutil"
	"github.com/pdcrl/sweepbench/internal/kernel"
	"github.com/pdcrl/sweepbench/internal/results"
	"github.com/pdcrl/sweepbench/internal/sweep"
)

// defaultMainSource is the kernel translation unit carrying the macro block.
const defaultMainSource = "main.cpp"

// barrierSource is the barrier-synchronized kernel variant.
const barrierSource = "barrier_main.cpp"

// binaryName is what the build descriptor produces.
const binaryName = "./a.out"

// FatalSetupError reports a broken environment discovered before any
// measurement: a missing build descriptor, kernel source, or output
// directory that cannot be created.
type FatalSetupError struct {
	Reason string
}

func (e *FatalSetupError) Error() string {
	return "setup: " + e.Reason
}

// Environment carries everything the experiment drivers share: paths,
// measurement policy, and the result sinks.
type Environment struct {
	FS fsutil.FileSystem

	// KernelDir holds the build descriptor, the kernel sources, and the
	// built binary. Builds and runs execute with this as their working
	// directory.
	KernelDir string

	// TestcaseDir is where matrix fixtures live, relative to KernelDir
	// unless absolute.
	TestcaseDir string

	// ResultsDir receives CSV files and plots.
	ResultsDir string

	Repetitions int
	Timeout     time.Duration

	// Store archives results and supplies earlier tuning outcomes.
	// Optional; nil disables the sqlite archive.
	Store *results.Store

	// Builder and Runner override the defaults in tests.
	Builder sweep.Builder
	Runner  sweep.Runner
}

// Validate checks the environment before any mutation or build. sources
// lists the kernel translation units the experiment will select.
func (e *Environment) Validate(sources ...string) error {
	if e.Repetitions < 1 {
		return &FatalSetupError{Reason: "repetitions must be at least 1"}
	}
	makefile := filepath.Join(e.KernelDir, "Makefile")
	info, err := e.FS.Stat(makefile)
	if err != nil {
		return &FatalSetupError{Reason: fmt.Sprintf("build descriptor %s not found", makefile)}
	}
	if info.IsDir() {
		return &FatalSetupError{Reason: fmt.Sprintf("build descriptor %s is a directory", makefile)}
	}
	for _, src := range sources {
		p := filepath.Join(e.KernelDir, src)
		if !e.FS.Exists(p) {
			return &FatalSetupError{Reason: fmt.Sprintf("kernel source %s not found", p)}
		}
	}
	if err := e.FS.MkdirAll(e.ResultsDir, 0755); err != nil {
		return &FatalSetupError{Reason: fmt.Sprintf("cannot create results dir %s: %v", e.ResultsDir, err)}
	}
	return nil
}

// ensureFixture generates the rows x cols matrix when absent and returns
// its path as the benchmark binary will see it (relative to KernelDir).
func (e *Environment) ensureFixture(rows, cols int) (string, error) {
	dir := e.TestcaseDir
	genDir := dir
	if !filepath.IsAbs(dir) {
		genDir = filepath.Join(e.KernelDir, dir)
	}
	if _, err := fixture.Ensure(e.FS, genDir, rows, cols); err != nil {
		return "", err
	}
	return fixture.Path(dir, rows, cols), nil
}

// controller wires the engine for this environment.
func (e *Environment) controller() *sweep.Controller {
	builder := e.Builder
	if builder == nil {
		builder = &kernel.Builder{Dir: e.KernelDir}
	}
	runner := e.Runner
	if runner == nil {
		runner = &binaryRunner{kernel: &kernel.Runner{Dir: e.KernelDir, Timeout: e.Timeout}}
	}
	return &sweep.Controller{
		Configurer: &kernelConfigurer{env: e},
		Builder:    builder,
		Aggregator: &sweep.Aggregator{Repetitions: e.Repetitions, Runner: runner},
	}
}

// resultPath returns a path under ResultsDir.
func (e *Environment) resultPath(name string) string {
	return filepath.Join(e.ResultsDir, name)
}

// archive records the run and its samples in sqlite when a store is wired.
func (e *Environment) archive(experiment string, samples []sweep.Sample) error {
	if e.Store == nil {
		return nil
	}
	runID, err := e.Store.RecordRun(experiment)
	if err != nil {
		return err
	}
	for _, s := range samples {
		if err := e.Store.RecordSample(runID, s); err != nil {
			return err
		}
	}
	return nil
}

// writeCSVs writes the summary and raw CSV pair for an experiment.
func (e *Environment) writeCSVs(baseName string, samples []sweep.Sample) error {
	summary, err := e.FS.Create(e.resultPath(baseName + ".csv"))
	if err != nil {
		return fmt.Errorf("create summary csv: %w", err)
	}
	raw, err := e.FS.Create(e.resultPath(baseName + "_raw.csv"))
	if err != nil {
		summary.Close()
		return fmt.Errorf("create raw csv: %w", err)
	}

	w := results.NewCSVWriter(summary, raw)
	w.WriteHeaders()
	for _, s := range samples {
		w.WriteSample(s)
	}
	w.Flush()

	if err := summary.Close(); err != nil {
		raw.Close()
		return err
	}
	return raw.Close()
}

// kernelConfigurer materializes a sweep.Config into the kernel tree. The
// macro rewrites target the config's translation unit, which is also what
// the build descriptor is pointed at.
type kernelConfigurer struct {
	env *Environment
}

func (c *kernelConfigurer) Configure(cfg sweep.Config) error {
	src := cfg.Source
	if src == "" {
		src = defaultMainSource
	}

	var macros []buildcfg.Macro
	for _, name := range cfg.Binding.Names() {
		macros = append(macros, buildcfg.Macro{Name: name, Value: cfg.Binding.Format(name)})
	}

	bc := buildcfg.BuildConfiguration{Source: src, Macros: macros}
	return bc.Materialize(
		c.env.FS,
		filepath.Join(c.env.KernelDir, src),
		filepath.Join(c.env.KernelDir, "Makefile"),
	)
}

// binaryRunner executes the built kernel against a config's fixture.
type binaryRunner struct {
	kernel *kernel.Runner
}

func (r *binaryRunner) Measure(ctx context.Context, cfg sweep.Config) (float64, error) {
	return r.kernel.Measure(ctx, binaryName, cfg.FixturePath)
}

// methodSlug turns a method label into a file-name fragment: lower case,
// with spaces and hyphens as underscores.
func methodSlug(label string) string {
	s := strings.ToLower(label)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}
