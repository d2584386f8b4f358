package kernel

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"
)

// Runner executes one benchmark process under a wall-clock timeout.
type Runner struct {
	// Dir is the working directory for the benchmark binary.
	Dir string

	// Timeout is the wall-clock limit per run. Zero means no limit.
	Timeout time.Duration
}

// Run executes the binary with args and returns its standard output.
// Exceeding the timeout yields a TimeoutError, a non-zero exit an
// ExitError; both carry enough context for the sweep log.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	// Kill the whole process group on timeout so worker threads spawned
	// by the kernel do not outlive the run.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &TimeoutError{Limit: r.Timeout}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", err
	}

	return stdout.String(), nil
}

// Measure runs the binary and extracts the reported elapsed milliseconds.
func (r *Runner) Measure(ctx context.Context, name string, args ...string) (float64, error) {
	out, err := r.Run(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	return ExtractElapsedMs(out)
}
