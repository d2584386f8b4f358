package results

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pdcrl/sweepbench/internal/sweep"
)

// Store archives aggregated results in sqlite so later experiments can
// look up earlier sweeps, in particular the best tuning point.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Store{db}, nil
}

// MigrateUp runs all pending migrations up to the latest version.
// Returns nil if no migrations were needed.
func (s *Store) MigrateUp(migrationsDir string) error {
	m, err := s.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	// Not closed: closing the migrate instance would close the
	// underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil when no migrations have been applied yet.
func (s *Store) MigrateVersion(migrationsDir string) (version uint, dirty bool, err error) {
	m, err := s.newMigrate(migrationsDir)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate(migrationsDir string) (*migrate.Migrate, error) {
	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", absPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RecordRun registers a new sweep run for the named experiment and returns
// its run ID.
func (s *Store) RecordRun(experiment string) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec("INSERT INTO runs (run_id, experiment) VALUES (?, ?)", id, experiment)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// RecordSample appends one aggregated result under the given run.
func (s *Store) RecordSample(runID string, smp sweep.Sample) error {
	_, err := s.Exec(`INSERT INTO results
		(run_id, method, alpha, beta, priority, threads, matrix_size,
		 avg_time_ms, stddev_ms, successful_runs, repetitions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		smp.Config.Method,
		smp.Config.Binding.Int("ALPHA"),
		smp.Config.Binding.Int("BETA"),
		smp.Config.Binding.Int("USE_PRIORITY_MAIN_QUEUE"),
		smp.Config.Threads,
		smp.Config.Rows,
		smp.MeanMs,
		smp.StddevMs,
		smp.Successes,
		smp.Repetitions,
	)
	if err != nil {
		return fmt.Errorf("record sample for %s: %w", smp.Config.Label(), err)
	}
	return nil
}

// ErrNoTuning is returned by BestTuning when no tuning results exist yet.
var ErrNoTuning = errors.New("no tuning results recorded")

// BestTuning returns the alpha/beta pair with the lowest mean time across
// all recorded tuning runs.
func (s *Store) BestTuning() (alpha, beta int, err error) {
	row := s.QueryRow(`SELECT r.alpha, r.beta
		FROM results r JOIN runs ru ON r.run_id = ru.run_id
		WHERE ru.experiment = 'param-tuning'
		ORDER BY r.avg_time_ms ASC, r.id ASC
		LIMIT 1`)
	if err := row.Scan(&alpha, &beta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrNoTuning
		}
		return 0, 0, fmt.Errorf("best tuning lookup: %w", err)
	}
	return alpha, beta, nil
}
