package model

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/npsgd-project/npsgd/param"
)

// MatlabRunner invokes an interpreter against a fixed script, the way a
// matlab-kind model is executed: the interpreter stays constant across
// versions while the script and working directory vary per task.
type MatlabRunner struct {
	Interpreter string
	Script      string
}

func (r *MatlabRunner) Run(ctx context.Context, workDir string, values map[string]param.Param) error {
	if r.Interpreter == "" || r.Script == "" {
		return fmt.Errorf("model: matlab runner missing interpreter or script")
	}
	cmd := exec.CommandContext(ctx, r.Interpreter, r.Script)
	cmd.Dir = workDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("model: matlab run failed: %w: %s", err, out)
	}
	return nil
}

// StandaloneRunner invokes a self-contained executable with fixed
// arguments; the executable is responsible for reading its own inputs from
// workDir and writing its declared output files there.
type StandaloneRunner struct {
	Command string
	Args    []string
}

func (r *StandaloneRunner) Run(ctx context.Context, workDir string, values map[string]param.Param) error {
	if r.Command == "" {
		return fmt.Errorf("model: standalone runner missing command")
	}
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Dir = workDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("model: standalone run failed: %w: %s", err, out)
	}
	return nil
}
