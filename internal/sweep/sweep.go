// Package sweep is the measurement engine: it walks a list of benchmark
// configurations, rebuilds the kernel for each one, repeats the run a fixed
// number of times, and aggregates the surviving measurements. Configuration
// and build failures abort the sweep; individual run failures only shrink
// the sample for their point.
package sweep

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/pdcrl/sweepbench/internal/monitoring"
	"github.com/pdcrl/sweepbench/internal/paramspace"
)

// Config is one fully resolved benchmark configuration: the kernel variant,
// the input fixture, and the macro values for this point.
type Config struct {
	// Method labels the kernel variant in reports.
	Method string

	// Source is the translation unit the build descriptor selects.
	// Empty keeps the current selection.
	Source string

	// Rows and Cols describe the input matrix.
	Rows int
	Cols int

	// FixturePath is passed to the benchmark binary as its input.
	FixturePath string

	// Threads is the worker count this point runs with, recorded in
	// reports alongside the swept values.
	Threads int

	// Binding holds the swept macro values.
	Binding paramspace.Binding
}

// Label renders the config for logs and warnings.
func (c Config) Label() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %dx%d", c.Method, c.Rows, c.Cols)
	if s := c.Binding.String(); s != "" {
		b.WriteByte(' ')
		b.WriteString(s)
	}
	return b.String()
}

// Template is the per-experiment constant part of a Config; Instantiate
// fills in one point of the parameter space.
type Template struct {
	Method      string
	Source      string
	Rows        int
	Cols        int
	FixturePath string
	Threads     int
}

// Instantiate builds the Config for one binding. A NUM_THREADS value in the
// binding overrides the template's thread count in the report metadata.
func (t Template) Instantiate(b paramspace.Binding) Config {
	threads := t.Threads
	if _, ok := b.Value("NUM_THREADS"); ok {
		threads = b.Int("NUM_THREADS")
	}
	return Config{
		Method:      t.Method,
		Source:      t.Source,
		Rows:        t.Rows,
		Cols:        t.Cols,
		FixturePath: t.FixturePath,
		Threads:     threads,
		Binding:     b,
	}
}

// Expand materializes the manifest for a template over a pruned space, in
// the space's enumeration order.
func Expand(t Template, space *paramspace.Space) []Config {
	var out []Config
	for b := range space.Points() {
		out = append(out, t.Instantiate(b))
	}
	return out
}

// Configurer writes a Config's compile-time state into the kernel tree.
type Configurer interface {
	Configure(cfg Config) error
}

// Builder recompiles the kernel after a configuration change.
type Builder interface {
	Build(ctx context.Context) error
}

// Runner performs one benchmark run and reports elapsed milliseconds.
type Runner interface {
	Measure(ctx context.Context, cfg Config) (float64, error)
}

// Sample is the aggregated measurement for one configuration.
type Sample struct {
	Config      Config
	MeanMs      float64
	StddevMs    float64
	RawMs       []float64
	Successes   int
	Repetitions int
}

// ExhaustionError reports a configuration whose every repetition failed.
// The sweep drops the point and keeps going.
type ExhaustionError struct {
	Config      Config
	Repetitions int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("all %d repetitions failed for %s", e.Repetitions, e.Config.Label())
}

// Aggregator repeats a configuration's run and reduces the successful
// measurements to a mean. Failed repetitions are logged and skipped; a
// partial sample is accepted without comment.
type Aggregator struct {
	Repetitions int
	Runner      Runner
}

// Measure runs cfg Repetitions times. With zero successes it returns an
// ExhaustionError and no sample.
func (a *Aggregator) Measure(ctx context.Context, cfg Config) (*Sample, error) {
	var raw []float64
	for i := 0; i < a.Repetitions; i++ {
		ms, err := a.Runner.Measure(ctx, cfg)
		if err != nil {
			monitoring.Logf("[sweep] repetition %d/%d failed for %s: %v", i+1, a.Repetitions, cfg.Label(), err)
			continue
		}
		raw = append(raw, ms)
	}

	if len(raw) == 0 {
		return nil, &ExhaustionError{Config: cfg, Repetitions: a.Repetitions}
	}

	s := &Sample{
		Config:      cfg,
		MeanMs:      stat.Mean(raw, nil),
		RawMs:       raw,
		Successes:   len(raw),
		Repetitions: a.Repetitions,
	}
	if len(raw) >= 2 {
		s.StddevMs = stat.StdDev(raw, nil)
	}
	return s, nil
}

// Controller drives a sweep over a manifest of configurations.
type Controller struct {
	Configurer Configurer
	Builder    Builder
	Aggregator *Aggregator

	// Warnings collects the non-fatal anomalies of the last Run:
	// points dropped because every repetition failed.
	Warnings []string
}

// Run measures every configuration in order. Configuration and build
// failures are returned immediately: past those errors the binary on disk
// no longer corresponds to the requested point, and every later
// measurement would be attributed to the wrong configuration. Exhausted
// points are dropped with a warning.
func (c *Controller) Run(ctx context.Context, manifest []Config) ([]Sample, error) {
	c.Warnings = nil

	results := make([]Sample, 0, len(manifest))
	for i, cfg := range manifest {
		monitoring.Logf("[sweep] Combination %d/%d: %s", i+1, len(manifest), cfg.Label())

		if err := c.Configurer.Configure(cfg); err != nil {
			return results, fmt.Errorf("configure %s: %w", cfg.Label(), err)
		}
		if err := c.Builder.Build(ctx); err != nil {
			return results, fmt.Errorf("build %s: %w", cfg.Label(), err)
		}

		sample, err := c.Aggregator.Measure(ctx, cfg)
		if err != nil {
			warning := err.Error()
			monitoring.Logf("[sweep] WARNING: %s", warning)
			c.Warnings = append(c.Warnings, warning)
			continue
		}
		monitoring.Logf("[sweep] %s: mean %.3f ms over %d/%d runs",
			cfg.Label(), sample.MeanMs, sample.Successes, sample.Repetitions)
		results = append(results, *sample)
	}
	return results, nil
}

// Optimal returns the sample with the lowest mean. Ties keep the earlier
// sample, so the result is deterministic for a fixed manifest order. The
// second return is false when results is empty.
func Optimal(results []Sample) (Sample, bool) {
	if len(results) == 0 {
		return Sample{}, false
	}
	best := results[0]
	for _, s := range results[1:] {
		if s.MeanMs < best.MeanMs {
			best = s
		}
	}
	return best, true
}
