package experiments

import (
	"context"
	"fmt"
	"log"

	"github.com/pdcrl/sweepbench/internal/paramspace"
	"github.com/pdcrl/sweepbench/internal/results"
	"github.com/pdcrl/sweepbench/internal/sweep"
)

// Tuning parameters: the alpha/beta tiling grid swept at a fixed matrix
// size and thread count, once per priority-queue setting.
const (
	tuningMatrixSize = 10800
	tuningThreads    = 26
	tuningGridMin    = 2
	tuningGridMax    = 32
	tuningGridStep   = 2
)

// ParamTuning sweeps the alpha/beta grid for both priority settings,
// writing a CSV pair and a heatmap per setting and logging each optimal
// point. Returns the optimal samples keyed by priority setting.
func ParamTuning(ctx context.Context, env *Environment) (map[int]sweep.Sample, error) {
	if err := env.Validate(defaultMainSource); err != nil {
		return nil, err
	}

	fixturePath, err := env.ensureFixture(tuningMatrixSize, tuningMatrixSize)
	if err != nil {
		return nil, err
	}

	ctrl := env.controller()
	optima := make(map[int]sweep.Sample)

	for _, priority := range []int{0, 1} {
		label := "without-priority"
		if priority == 1 {
			label = "with-priority"
		}
		log.Printf("[tuning] sweeping alpha/beta grid for %s", label)

		space := paramspace.New(
			paramspace.Ints("NUM_THREADS", tuningThreads),
			paramspace.Ints("USE_PRIORITY_MAIN_QUEUE", priority),
			paramspace.IntRange("ALPHA", tuningGridMin, tuningGridMax, tuningGridStep),
			paramspace.IntRange("BETA", tuningGridMin, tuningGridMax, tuningGridStep),
		).Prune(
			paramspace.Ordered("ALPHA", "BETA"),
			paramspace.Divisible("BETA", "ALPHA"),
			paramspace.DividesSize("ALPHA", tuningMatrixSize),
			paramspace.DividesSize("BETA", tuningMatrixSize),
		)

		tmpl := sweep.Template{
			Method:      label,
			Source:      defaultMainSource,
			Rows:        tuningMatrixSize,
			Cols:        tuningMatrixSize,
			FixturePath: fixturePath,
		}
		manifest := sweep.Expand(tmpl, space)
		log.Printf("[tuning] %d retained configurations for %s", len(manifest), label)

		samples, err := ctrl.Run(ctx, manifest)
		if err != nil {
			return nil, err
		}

		base := fmt.Sprintf("param_tuning_%s_m%d_t%d", methodSlug(label), tuningMatrixSize, tuningThreads)
		if err := env.writeCSVs(base, samples); err != nil {
			return nil, err
		}
		if len(samples) > 0 {
			title := fmt.Sprintf("Avg execution time (ms), %s, %dx%d, %d threads",
				label, tuningMatrixSize, tuningMatrixSize, tuningThreads)
			if err := results.WriteTuningHeatmap(env.FS, env.resultPath(base+"_heatmap.html"), title, samples); err != nil {
				return nil, err
			}
		}
		if err := env.archive("param-tuning", samples); err != nil {
			return nil, err
		}

		if best, ok := sweep.Optimal(samples); ok {
			log.Printf("[tuning] OPTIMAL for %s: ALPHA=%d BETA=%d avg %.2f ms",
				label, best.Config.Binding.Int("ALPHA"), best.Config.Binding.Int("BETA"), best.MeanMs)
			optima[priority] = best
		} else {
			log.Printf("[tuning] WARNING: no surviving configurations for %s", label)
		}
	}

	return optima, nil
}
