package llm

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes the external model binary. Production uses ExecRunner;
// tests inject canned responses.
type Runner interface {
	Run(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error)
}

// ExecRunner invokes the model binary as a subprocess. The binary is
// expected to be pre-authenticated; stdout is authoritative.
type ExecRunner struct {
	Binary string
}

// Run executes the binary with the given arguments.
func (r *ExecRunner) Run(ctx context.Context, args []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Non-zero exit: the caller decides based on exitCode.
			return outBuf.String(), errBuf.String(), exitCode, nil
		}
		return outBuf.String(), errBuf.String(), exitCode, err
	}
	return outBuf.String(), errBuf.String(), exitCode, nil
}
