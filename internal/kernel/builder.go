package kernel

import (
	"context"
	"log"
	"os/exec"
)

// Builder recompiles the kernel in its source directory. The clean step is
// mandatory: make alone does not track macro edits inside sources, so an
// incremental build could hand back a binary compiled from the previous
// point of the sweep.
type Builder struct {
	// Dir is the kernel source directory holding the build descriptor.
	Dir string

	// CleanCmd and BuildCmd override the default `make clean` and
	// `make -j` invocations.
	CleanCmd []string
	BuildCmd []string
}

// Build runs the clean step followed by the build step. A non-zero exit
// from either yields a BuildError carrying the combined output.
func (b *Builder) Build(ctx context.Context) error {
	clean := b.CleanCmd
	if len(clean) == 0 {
		clean = []string{"make", "clean"}
	}
	build := b.BuildCmd
	if len(build) == 0 {
		build = []string{"make", "-j"}
	}

	if err := b.step(ctx, "clean", clean); err != nil {
		return err
	}
	return b.step(ctx, "build", build)
}

func (b *Builder) step(ctx context.Context, name string, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = b.Dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("[build] %s step failed in %s: %v", name, b.Dir, err)
		return &BuildError{Step: name, Output: string(out), Err: err}
	}
	return nil
}
