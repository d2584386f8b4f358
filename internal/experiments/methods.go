package experiments

import (
	"errors"
	"log"

	"github.com/pdcrl/sweepbench/internal/paramspace"
	"github.com/pdcrl/sweepbench/internal/results"
	"github.com/pdcrl/sweepbench/internal/sweep"
)

// method is one kernel variant compared by the scalability and throughput
// experiments, with the tiling factors it runs at.
type method struct {
	Label  string
	Source string
	Alpha  int
	Beta   int
	// Priority is the USE_PRIORITY_MAIN_QUEUE value, or -1 when the
	// variant has no such macro (the barrier kernel).
	Priority int
}

// binding builds the macro assignment for this method at a thread count.
func (m method) binding(threads int) paramspace.Binding {
	names := []string{"NUM_THREADS", "ALPHA", "BETA"}
	values := []any{threads, m.Alpha, m.Beta}
	if m.Priority >= 0 {
		names = append(names, "USE_PRIORITY_MAIN_QUEUE")
		values = append(values, m.Priority)
	}
	return paramspace.NewBinding(names, values)
}

// config builds the full sweep config for this method at one point.
func (m method) config(threads, size int, fixturePath string) sweep.Config {
	return sweep.Config{
		Method:      m.Label,
		Source:      m.Source,
		Rows:        size,
		Cols:        size,
		FixturePath: fixturePath,
		Threads:     threads,
		Binding:     m.binding(threads),
	}
}

// tunedMethods replaces the fallback tiling factors with the best pair from
// an earlier tuning sweep when one is on record. Without a store, or before
// any tuning run, the fallbacks stand.
func tunedMethods(store *results.Store, fallbacks []method) []method {
	if store == nil {
		return fallbacks
	}
	alpha, beta, err := store.BestTuning()
	if err != nil {
		if !errors.Is(err, results.ErrNoTuning) {
			log.Printf("[sweep] WARNING: tuning lookup failed, using fallback tiling: %v", err)
		}
		return fallbacks
	}

	log.Printf("[sweep] using tuned tiling ALPHA=%d BETA=%d from earlier run", alpha, beta)
	out := make([]method, len(fallbacks))
	for i, m := range fallbacks {
		m.Alpha, m.Beta = alpha, beta
		out[i] = m
	}
	return out
}
