package experiments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pdcrl/sweepbench/internal/paramspace"
	"github.com/pdcrl/sweepbench/internal/sweep"
)

// RunSpec is the JSON description of one standalone benchmark run, used
// for smoke tests of a freshly provisioned machine.
type RunSpec struct {
	Description string `json:"test_description"`
	Source      string `json:"cpp_source_file"`
	Threads     int    `json:"num_threads"`
	Alpha       int    `json:"alpha"`
	Beta        int    `json:"beta"`
	// UsePriority is optional; absent means the variant has no
	// priority-queue macro.
	UsePriority *int `json:"use_priority_queue"`
	MatrixRows  int  `json:"matrix_rows"`
	MatrixCols  int  `json:"matrix_cols"`
	// Cycles overrides the environment's repetition count when positive.
	Cycles int `json:"cycles"`
}

// LoadRunSpec reads and validates a RunSpec from a JSON file.
func LoadRunSpec(env *Environment, path string) (*RunSpec, error) {
	data, err := env.FS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run spec %s: %w", path, err)
	}
	var spec RunSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode run spec %s: %w", path, err)
	}
	if spec.Source == "" {
		spec.Source = defaultMainSource
	}
	if spec.MatrixRows < 1 || spec.MatrixCols < 1 {
		return nil, fmt.Errorf("run spec %s: matrix dimensions must be positive", path)
	}
	if spec.Threads < 1 {
		return nil, fmt.Errorf("run spec %s: num_threads must be positive", path)
	}
	return &spec, nil
}

// Config turns the spec into a single sweep configuration.
func (s *RunSpec) Config(fixturePath string) sweep.Config {
	names := []string{"NUM_THREADS", "ALPHA", "BETA"}
	values := []any{s.Threads, s.Alpha, s.Beta}
	if s.UsePriority != nil {
		names = append(names, "USE_PRIORITY_MAIN_QUEUE")
		values = append(values, *s.UsePriority)
	}
	label := s.Description
	if label == "" {
		label = "single-config"
	}
	return sweep.Config{
		Method:      label,
		Source:      s.Source,
		Rows:        s.MatrixRows,
		Cols:        s.MatrixCols,
		FixturePath: fixturePath,
		Threads:     s.Threads,
		Binding:     paramspace.NewBinding(names, values),
	}
}

// SingleRun executes one configuration described by the JSON file at
// specPath and returns its aggregated sample. Every repetition failing is
// an error here: a smoke test with no data has failed.
func SingleRun(ctx context.Context, env *Environment, specPath string) (*sweep.Sample, error) {
	spec, err := LoadRunSpec(env, specPath)
	if err != nil {
		return nil, err
	}
	if err := env.Validate(spec.Source); err != nil {
		return nil, err
	}
	fixturePath, err := env.ensureFixture(spec.MatrixRows, spec.MatrixCols)
	if err != nil {
		return nil, err
	}

	// Cycles overrides the repetition count for this run only; the
	// environment keeps its own value.
	ctrl := env.controller()
	if spec.Cycles > 0 {
		ctrl.Aggregator.Repetitions = spec.Cycles
	}
	samples, err := ctrl.Run(ctx, []sweep.Config{spec.Config(fixturePath)})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("single run %q: %s", spec.Description, ctrl.Warnings[0])
	}

	s := samples[0]
	log.Printf("[sweep] single run %q: avg %.2f ms over %d/%d runs",
		spec.Description, s.MeanMs, s.Successes, s.Repetitions)
	return &s, nil
}
