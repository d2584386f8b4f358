package kernel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerCapturesStdout(t *testing.T) {
	r := &Runner{Timeout: 5 * time.Second}

	out, err := r.Run(context.Background(), "sh", "-c", "echo 'Execution Time: 42.0 ms'")
	require.NoError(t, err)
	assert.Equal(t, "Execution Time: 42.0 ms\n", out)
}

func TestRunnerTimeout(t *testing.T) {
	r := &Runner{Timeout: 100 * time.Millisecond}

	start := time.Now()
	_, err := r.Run(context.Background(), "sh", "-c", "sleep 5")
	elapsed := time.Since(start)

	var terr *TimeoutError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 100*time.Millisecond, terr.Limit)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestRunnerNonZeroExit(t *testing.T) {
	r := &Runner{Timeout: 5 * time.Second}

	_, err := r.Run(context.Background(), "sh", "-c", "echo oom >&2; exit 3")

	var xerr *ExitError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, 3, xerr.Code)
	assert.Equal(t, "oom\n", xerr.Stderr)
}

func TestRunnerExitIsNotTimeout(t *testing.T) {
	r := &Runner{Timeout: 5 * time.Second}

	_, err := r.Run(context.Background(), "sh", "-c", "exit 1")

	var terr *TimeoutError
	assert.False(t, errors.As(err, &terr))
}

func TestMeasure(t *testing.T) {
	r := &Runner{Timeout: 5 * time.Second}

	ms, err := r.Measure(context.Background(), "sh", "-c", "echo 'Time taken: 118.5 ms'")
	require.NoError(t, err)
	assert.Equal(t, 118.5, ms)
}

func TestMeasureParseFailure(t *testing.T) {
	r := &Runner{Timeout: 5 * time.Second}

	_, err := r.Measure(context.Background(), "sh", "-c", "echo done")

	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestBuilderRunsCleanThenBuild(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{
		Dir:      dir,
		CleanCmd: []string{"sh", "-c", "touch cleaned"},
		BuildCmd: []string{"sh", "-c", "test -f cleaned && touch built"},
	}

	require.NoError(t, b.Build(context.Background()))
}

func TestBuilderCleanFailureIsFatal(t *testing.T) {
	b := &Builder{
		Dir:      t.TempDir(),
		CleanCmd: []string{"sh", "-c", "echo 'no rule to make target' >&2; exit 2"},
		BuildCmd: []string{"true"},
	}

	err := b.Build(context.Background())

	var berr *BuildError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, "clean", berr.Step)
	assert.Contains(t, berr.Output, "no rule to make target")
}

func TestBuilderBuildFailure(t *testing.T) {
	b := &Builder{
		Dir:      t.TempDir(),
		CleanCmd: []string{"true"},
		BuildCmd: []string{"sh", "-c", "echo 'main.cpp:12: error: expected ;' >&2; exit 1"},
	}

	err := b.Build(context.Background())

	var berr *BuildError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, "build", berr.Step)
	assert.Contains(t, berr.Output, "expected ;")
}
