package experiments

import (
	"context"
	"fmt"
	"log"

	"github.com/pdcrl/sweepbench/internal/results"
	"github.com/pdcrl/sweepbench/internal/sweep"
)

// Scalability grid: matrix sizes against two fixed thread counts, for all
// three kernel variants. The tiling fallbacks are the published values for
// each variant, overridden by a recorded tuning sweep when available.
var (
	scalabilitySizes   = []int{300, 2400, 4800, 7200, 10800}
	scalabilityThreads = []int{26, 52}

	scalabilityMethods = []method{
		{Label: "Without Priority", Source: defaultMainSource, Alpha: 18, Beta: 18, Priority: 0},
		{Label: "With Priority", Source: defaultMainSource, Alpha: 20, Beta: 20, Priority: 1},
		{Label: "Barrier", Source: barrierSource, Alpha: 16, Beta: 16, Priority: -1},
	}
)

// Scalability measures every method across the size grid at each thread
// count and renders one line plot per thread count.
func Scalability(ctx context.Context, env *Environment) ([]sweep.Sample, error) {
	if err := env.Validate(defaultMainSource, barrierSource); err != nil {
		return nil, err
	}

	methods := tunedMethods(env.Store, scalabilityMethods)

	var manifest []sweep.Config
	for _, threads := range scalabilityThreads {
		for _, size := range scalabilitySizes {
			fixturePath, err := env.ensureFixture(size, size)
			if err != nil {
				return nil, err
			}
			for _, m := range methods {
				manifest = append(manifest, m.config(threads, size, fixturePath))
			}
		}
	}

	samples, err := env.controller().Run(ctx, manifest)
	if err != nil {
		return nil, err
	}

	if err := env.writeCSVs("scalability_results", samples); err != nil {
		return nil, err
	}
	if err := env.archive("scalability", samples); err != nil {
		return nil, err
	}

	for _, threads := range scalabilityThreads {
		var series []results.Series
		for _, m := range methods {
			var s results.Series
			s.Name = m.Label
			for _, smp := range samples {
				if smp.Config.Method == m.Label && smp.Config.Threads == threads {
					s.X = append(s.X, float64(smp.Config.Rows))
					s.Y = append(s.Y, smp.MeanMs)
				}
			}
			if len(s.X) > 0 {
				series = append(series, s)
			}
		}
		if len(series) == 0 {
			log.Printf("[sweep] WARNING: no scalability results for %d threads, skipping plot", threads)
			continue
		}

		lp := results.LinePlot{
			Title:  fmt.Sprintf("Scalability Comparison (%d Threads)", threads),
			XLabel: "Matrix Size",
			YLabel: "Execution Time (ms)",
			Series: series,
		}
		path := env.resultPath(fmt.Sprintf("scalability_%dthreads.png", threads))
		if err := lp.Save(env.FS, path); err != nil {
			return nil, err
		}
		log.Printf("[sweep] plot saved to %s", path)
	}

	return samples, nil
}
