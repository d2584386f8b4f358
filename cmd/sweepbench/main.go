// Command sweepbench runs the benchmark experiments against a checked-out
// kernel tree: an alpha/beta tuning sweep, a scalability comparison, a
// throughput comparison, or a single configuration described by a JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pdcrl/sweepbench/internal/experiments"
	"github.com/pdcrl/sweepbench/internal/fsutil"
	"github.com/pdcrl/sweepbench/internal/results"
	"github.com/pdcrl/sweepbench/internal/version"
)

func main() {
	experiment := flag.String("experiment", "", "Experiment to run: param_tuning, scalability, throughput, all_required, or all")
	configPath := flag.String("config", "", "JSON file describing a single run (overrides -experiment)")

	kernelDir := flag.String("kernel-dir", ".", "Directory holding the Makefile and kernel sources")
	testcaseDir := flag.String("testcase-dir", "testcase", "Matrix fixture directory, relative to kernel-dir unless absolute")
	resultsDir := flag.String("results-dir", "results", "Directory for CSV files and plots")

	repetitions := flag.Int("repetitions", 3, "Timed runs per configuration")
	timeout := flag.Duration("timeout", time.Hour, "Wall-clock limit per run")

	dbPath := flag.String("db", "", "sqlite database for the result archive (empty disables)")
	migrationsDir := flag.String("migrations", "db/migrations", "Schema migrations for the result archive")

	flag.Parse()

	log.Printf("sweepbench %s (%s)", version.Version, version.GitSHA)

	if *experiment == "" && *configPath == "" {
		log.Printf("no -experiment or -config specified, nothing to do")
		flag.Usage()
		os.Exit(2)
	}

	env := &experiments.Environment{
		FS:          fsutil.OSFileSystem{},
		KernelDir:   *kernelDir,
		TestcaseDir: *testcaseDir,
		ResultsDir:  *resultsDir,
		Repetitions: *repetitions,
		Timeout:     *timeout,
	}

	if *dbPath != "" {
		store, err := results.Open(*dbPath)
		if err != nil {
			log.Fatalf("open result archive %s: %v", *dbPath, err)
		}
		defer store.Close()
		if err := store.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("migrate result archive: %v", err)
		}
		env.Store = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *configPath != "" {
		s, err := experiments.SingleRun(ctx, env, *configPath)
		if err != nil {
			log.Fatalf("single run failed: %v", err)
		}
		fmt.Printf("MINIMAL_TEST_PASSED: Average time %.2f ms\n", s.MeanMs)
		return
	}

	if err := runExperiments(ctx, env, *experiment); err != nil {
		log.Fatalf("experiment %s failed: %v", *experiment, err)
	}
	fmt.Printf("BENCHMARK_COMPLETED:%s\n", *experiment)
}

func runExperiments(ctx context.Context, env *experiments.Environment, which string) error {
	valid := map[string]bool{
		"param_tuning": true, "scalability": true, "throughput": true,
		"all_required": true, "all": true,
	}
	if !valid[which] {
		return fmt.Errorf("unknown experiment %q", which)
	}

	if which == "param_tuning" || which == "all" {
		if _, err := experiments.ParamTuning(ctx, env); err != nil {
			return err
		}
	}
	if which == "scalability" || which == "all_required" || which == "all" {
		if _, err := experiments.Scalability(ctx, env); err != nil {
			return err
		}
	}
	if which == "throughput" || which == "all_required" || which == "all" {
		if _, err := experiments.Throughput(ctx, env); err != nil {
			return err
		}
	}
	return nil
}
