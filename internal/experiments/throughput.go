package experiments

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/pdcrl/sweepbench/internal/results"
	"github.com/pdcrl/sweepbench/internal/sweep"
)

// Throughput setup: a fixed large matrix swept across thread counts. The
// plot shows a subset of the measured counts; the CSV keeps all of them.
var (
	throughputMatrixSize = 8192
	throughputPlotPoints = []int{4, 24, 44, 64, 84, 100}

	throughputMethods = []method{
		{Label: "Without Priority", Source: defaultMainSource, Alpha: 12, Beta: 12, Priority: 0},
		{Label: "With Priority", Source: defaultMainSource, Alpha: 20, Beta: 20, Priority: 1},
		{Label: "Barrier", Source: barrierSource, Alpha: 12, Beta: 12, Priority: -1},
	}
)

// throughputThreadCounts merges the plot points with every multiple of 4 up
// to 104, deduplicated and sorted.
func throughputThreadCounts() []int {
	seen := make(map[int]bool)
	for _, t := range throughputPlotPoints {
		seen[t] = true
	}
	for i := 1; i <= 26; i++ {
		seen[4*i] = true
	}
	out := make([]int, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Throughput measures every method across the thread grid at a fixed size
// and renders a log-scale line plot over the designated plot points.
func Throughput(ctx context.Context, env *Environment) ([]sweep.Sample, error) {
	if err := env.Validate(defaultMainSource, barrierSource); err != nil {
		return nil, err
	}

	fixturePath, err := env.ensureFixture(throughputMatrixSize, throughputMatrixSize)
	if err != nil {
		return nil, err
	}

	methods := tunedMethods(env.Store, throughputMethods)
	threadCounts := throughputThreadCounts()

	var manifest []sweep.Config
	for _, m := range methods {
		for _, threads := range threadCounts {
			manifest = append(manifest, m.config(threads, throughputMatrixSize, fixturePath))
		}
	}

	samples, err := env.controller().Run(ctx, manifest)
	if err != nil {
		return nil, err
	}

	if err := env.writeCSVs("throughput_results", samples); err != nil {
		return nil, err
	}
	if err := env.archive("throughput", samples); err != nil {
		return nil, err
	}

	plotPoint := make(map[int]bool)
	for _, t := range throughputPlotPoints {
		plotPoint[t] = true
	}

	var series []results.Series
	for _, m := range methods {
		var s results.Series
		s.Name = m.Label
		for _, smp := range samples {
			if smp.Config.Method == m.Label && plotPoint[smp.Config.Threads] {
				s.X = append(s.X, float64(smp.Config.Threads))
				s.Y = append(s.Y, smp.MeanMs)
			}
		}
		if len(s.X) > 0 {
			series = append(series, s)
		}
	}
	if len(series) == 0 {
		log.Printf("[sweep] WARNING: no throughput results, skipping plot")
		return samples, nil
	}

	lp := results.LinePlot{
		Title:  fmt.Sprintf("Throughput Evaluation (Matrix: %dx%d)", throughputMatrixSize, throughputMatrixSize),
		XLabel: "Thread Count",
		YLabel: "Execution Time (ms)",
		LogY:   true,
		Series: series,
	}
	path := env.resultPath("throughput.png")
	if err := lp.Save(env.FS, path); err != nil {
		return nil, err
	}
	log.Printf("[sweep] plot saved to %s", path)

	return samples, nil
}
