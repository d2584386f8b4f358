// Package kernel drives the compiled benchmark binary: rebuilding it after a
// configuration change, running it under a wall-clock timeout, and pulling
// the reported elapsed time out of its output. Failures are classified so
// the sweep engine can distinguish a broken build (fatal) from a single bad
// measurement (tolerated).
package kernel

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// BuildError reports a failed clean or build step. The sweep aborts on it:
// a binary that failed to rebuild would silently measure the previous
// configuration.
type BuildError struct {
	Step   string
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// TimeoutError reports a benchmark run that exceeded its wall-clock limit.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run exceeded %s wall-clock limit", e.Limit)
}

// ExitError reports a benchmark run that terminated with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run exited with status %d", e.Code)
}

// ParseError reports output with no recognizable elapsed-time line.
type ParseError struct {
	Output string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no elapsed-time line in output %q", truncate(e.Output, 120))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Kernel variants label their timing line differently; both spellings are
// accepted. The first match wins.
var elapsedPattern = regexp.MustCompile(`(?:Execution Time|Time taken):\s*([0-9.]+)\s*ms`)

// ExtractElapsedMs pulls the reported elapsed milliseconds out of a run's
// standard output. Returns a ParseError when no timing line is present.
func ExtractElapsedMs(output string) (float64, error) {
	m := elapsedPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, &ParseError{Output: output}
	}
	ms, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &ParseError{Output: output}
	}
	return ms, nil
}
