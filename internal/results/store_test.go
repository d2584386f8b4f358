package results

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../db/migrations"

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.MigrateUp(migrationsDir))
	return store
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.MigrateUp(migrationsDir))

	version, dirty, err := store.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestRecordRunAndSample(t *testing.T) {
	store := openTestStore(t)

	runID, err := store.RecordRun("param-tuning")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, store.RecordSample(runID, tuningSample(4, 8, 1, 119.75, []float64{118.5, 121.0})))
	require.NoError(t, store.RecordSample(runID, tuningSample(2, 8, 1, 98.2, []float64{98.2})))

	var count int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM results WHERE run_id = ?", runID).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRunIDsAreUnique(t *testing.T) {
	store := openTestStore(t)

	a, err := store.RecordRun("scalability")
	require.NoError(t, err)
	b, err := store.RecordRun("scalability")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBestTuning(t *testing.T) {
	store := openTestStore(t)

	runID, err := store.RecordRun("param-tuning")
	require.NoError(t, err)
	require.NoError(t, store.RecordSample(runID, tuningSample(4, 8, 0, 150.0, []float64{150})))
	require.NoError(t, store.RecordSample(runID, tuningSample(2, 6, 0, 90.0, []float64{90})))
	require.NoError(t, store.RecordSample(runID, tuningSample(8, 16, 0, 120.0, []float64{120})))

	alpha, beta, err := store.BestTuning()
	require.NoError(t, err)
	assert.Equal(t, 2, alpha)
	assert.Equal(t, 6, beta)
}

func TestBestTuningIgnoresOtherExperiments(t *testing.T) {
	store := openTestStore(t)

	runID, err := store.RecordRun("scalability")
	require.NoError(t, err)
	require.NoError(t, store.RecordSample(runID, tuningSample(6, 12, 0, 10.0, []float64{10})))

	_, _, err = store.BestTuning()
	assert.True(t, errors.Is(err, ErrNoTuning))
}

func TestBestTuningEmpty(t *testing.T) {
	store := openTestStore(t)

	_, _, err := store.BestTuning()
	assert.True(t, errors.Is(err, ErrNoTuning))
}
