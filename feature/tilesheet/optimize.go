package tilesheet

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Optimizer post-processes one composed sheet file. Optimize must not return
// until the file is final; the upload reads it afterwards.
type Optimizer interface {
	Optimize(ctx context.Context, path string) error
}

type execOptimizer struct {
	command string
	args    []string
}

// NewExecOptimizer wraps an external optimizer command (e.g. "optipng -o7").
// The target path is appended as the last argument.
func NewExecOptimizer(command string) Optimizer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return NewNopOptimizer()
	}
	return &execOptimizer{command: fields[0], args: fields[1:]}
}

func (o *execOptimizer) Optimize(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, o.command, append(append([]string{}, o.args...), path)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed on %s: %w: %s", o.command, path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

type nopOptimizer struct{}

// NewNopOptimizer returns an Optimizer that leaves files untouched.
func NewNopOptimizer() Optimizer {
	return nopOptimizer{}
}

func (nopOptimizer) Optimize(context.Context, string) error {
	return nil
}
