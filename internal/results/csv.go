// Package results persists sweep output: CSV summaries, a sqlite archive
// keyed by run ID, and the plots each experiment publishes.
package results

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pdcrl/sweepbench/internal/sweep"
)

// CSVWriter wraps csv.Writer with methods for sweep output. The summary
// file carries one row per configuration; the raw file one row per
// successful repetition.
type CSVWriter struct {
	Summary *csv.Writer
	Raw     *csv.Writer
}

// NewCSVWriter creates a CSVWriter over the given summary and raw writers.
func NewCSVWriter(summary, raw io.Writer) *CSVWriter {
	return &CSVWriter{
		Summary: csv.NewWriter(summary),
		Raw:     csv.NewWriter(raw),
	}
}

// WriteHeaders writes the headers to both summary and raw CSV files.
func (c *CSVWriter) WriteHeaders() {
	c.Summary.Write([]string{
		"method", "alpha", "beta", "priority", "threads", "matrix_size",
		"avg_time_ms", "stddev_ms", "successful_runs", "repetitions",
	})
	c.Raw.Write([]string{
		"method", "alpha", "beta", "priority", "threads", "matrix_size",
		"iter", "time_ms",
	})
}

// WriteSample writes the summary row for one aggregated configuration and
// the raw rows behind it.
func (c *CSVWriter) WriteSample(s sweep.Sample) {
	prefix := []string{
		s.Config.Method,
		s.Config.Binding.Format("ALPHA"),
		s.Config.Binding.Format("BETA"),
		s.Config.Binding.Format("USE_PRIORITY_MAIN_QUEUE"),
		fmt.Sprintf("%d", s.Config.Threads),
		fmt.Sprintf("%d", s.Config.Rows),
	}

	row := append(append([]string{}, prefix...),
		fmt.Sprintf("%.6f", s.MeanMs),
		fmt.Sprintf("%.6f", s.StddevMs),
		fmt.Sprintf("%d", s.Successes),
		fmt.Sprintf("%d", s.Repetitions),
	)
	c.Summary.Write(row)
	c.Summary.Flush()

	for i, ms := range s.RawMs {
		raw := append(append([]string{}, prefix...),
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%.6f", ms),
		)
		c.Raw.Write(raw)
	}
	c.Raw.Flush()
}

// Flush flushes both summary and raw writers.
func (c *CSVWriter) Flush() {
	c.Summary.Flush()
	c.Raw.Flush()
}
