package adapter

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// EngineRunner abstracts running the analysis engine as an external process.
type EngineRunner interface {
	// Run executes the engine with the given arguments and waits for it to
	// finish or for ctx to expire. A non-zero exit is reported through
	// exitCode, not err; err is reserved for failures to start the process
	// and for context cancellation before launch. exitCode is -1 when the
	// process never ran or was killed by a signal.
	Run(ctx context.Context, args ...string) (stdout, stderr []byte, exitCode int, err error)
}

// LocalEngineRunner provides a concrete implementation using os/exec.
type LocalEngineRunner struct {
	binary    string
	waitDelay time.Duration
}

// NewLocalEngineRunner constructs a LocalEngineRunner for the given engine
// binary, typically "semgrep" resolved via PATH.
func NewLocalEngineRunner(binary string) *LocalEngineRunner {
	return &LocalEngineRunner{
		binary:    binary,
		waitDelay: 5 * time.Second,
	}
}

// Run executes the engine with the given arguments.
func (r *LocalEngineRunner) Run(ctx context.Context, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)

	// Without a wait delay a killed engine that inherited its pipes to a
	// grandchild would block Wait forever.
	cmd.WaitDelay = r.waitDelay

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = nil
	}

	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}
