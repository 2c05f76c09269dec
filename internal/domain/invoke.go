package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pinemarten/semgrepd/internal/adapter"
	m "github.com/pinemarten/semgrepd/internal/model"
	"github.com/pinemarten/semgrepd/pkg"
)

const (
	// versionUnknown is reported when the engine version cannot be probed.
	versionUnknown = "unknown"

	// maxStderrDiagnostic caps the stderr excerpt attached to tool failures.
	maxStderrDiagnostic = 500

	// maxStdoutDiagnostic caps the stdout excerpt attached to parse failures.
	maxStdoutDiagnostic = 200
)

// Invoker runs the analysis engine against a staged workspace and classifies
// the outcome.
type Invoker interface {
	// Invoke runs one scan over the workspace. The returned error is
	// reserved for configuration problems and caller cancellation; engine
	// failures and timeouts are reported through the outcome status.
	Invoke(ctx context.Context, ws m.Path, mode m.RulesetMode) (m.EngineOutcome, error)

	// Version probes the engine version, falling back to "unknown".
	Version(ctx context.Context) string
}

// InvokerOptions tunes engine invocation. Zero values select the defaults.
type InvokerOptions struct {
	// ScanTimeout bounds one engine run (default 60s).
	ScanTimeout time.Duration
	// VersionTimeout bounds the version probe (default 10s).
	VersionTimeout time.Duration
	// MaxConcurrent bounds simultaneous engine processes (0 = unbounded).
	MaxConcurrent int64
}

type engineInvoker struct {
	runner         adapter.EngineRunner
	rules          adapter.RulesetStore
	sem            *semaphore.Weighted
	scanTimeout    time.Duration
	versionTimeout time.Duration
}

// NewEngineInvoker constructs an Invoker backed by the provided process
// runner and ruleset store.
func NewEngineInvoker(runner adapter.EngineRunner, rules adapter.RulesetStore, opts InvokerOptions) Invoker {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 60 * time.Second
	}

	if opts.VersionTimeout <= 0 {
		opts.VersionTimeout = 10 * time.Second
	}

	var sem *semaphore.Weighted
	if opts.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}

	return &engineInvoker{
		runner:         runner,
		rules:          rules,
		sem:            sem,
		scanTimeout:    opts.ScanTimeout,
		versionTimeout: opts.VersionTimeout,
	}
}

func (ei *engineInvoker) Invoke(ctx context.Context, ws m.Path, mode m.RulesetMode) (m.EngineOutcome, error) {
	configArg, err := ei.configArg(mode)
	if err != nil {
		return m.EngineOutcome{}, err
	}

	if ei.sem != nil {
		if err := ei.sem.Acquire(ctx, 1); err != nil {
			return m.EngineOutcome{}, err
		}
		defer ei.sem.Release(1)
	}

	runCtx, cancel := context.WithTimeout(ctx, ei.scanTimeout)
	defer cancel()

	stdout, stderr, exitCode, runErr := ei.runner.Run(runCtx,
		"--config", configArg,
		"--json",
		"--no-git-ignore",
		"--quiet",
		string(ws),
	)

	// Distinguish our scan timeout from the caller going away.
	if ctx.Err() != nil {
		return m.EngineOutcome{}, ctx.Err()
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		slog.Warn("Engine run exceeded the scan timeout", "workspace", ws, "timeout", ei.scanTimeout)
		return m.EngineOutcome{Status: m.OutcomeTimeout}, nil
	}

	if runErr != nil {
		slog.Error("Failed to start engine process", "error", runErr)
		return m.EngineOutcome{
			Status:     m.OutcomeToolFailure,
			Diagnostic: fmt.Sprintf("failed to run semgrep: %v", runErr),
		}, nil
	}

	// Exit code 1 means findings were reported, which is expected.
	if exitCode != 0 && exitCode != 1 {
		slog.Error("Engine run failed", "exitCode", exitCode, "workspace", ws)
		return m.EngineOutcome{
			Status:     m.OutcomeToolFailure,
			Diagnostic: fmt.Sprintf("semgrep error: %s", pkg.Excerpt(stderr, maxStderrDiagnostic)),
		}, nil
	}

	var output m.EngineOutput
	if err := json.Unmarshal(stdout, &output); err != nil {
		slog.Error("Failed to parse engine output", "exitCode", exitCode, "error", err)
		return m.EngineOutcome{
			Status:     m.OutcomeToolFailure,
			Diagnostic: fmt.Sprintf("failed to parse semgrep output: %s", pkg.Excerpt(stdout, maxStdoutDiagnostic)),
		}, nil
	}

	return m.EngineOutcome{Status: m.OutcomeFindings, Output: output}, nil
}

func (ei *engineInvoker) Version(ctx context.Context) string {
	probeCtx, cancel := context.WithTimeout(ctx, ei.versionTimeout)
	defer cancel()

	stdout, _, exitCode, err := ei.runner.Run(probeCtx, "--version")
	if err != nil || exitCode != 0 {
		slog.Warn("Failed to probe engine version", "exitCode", exitCode, "error", err)
		return versionUnknown
	}

	version := strings.TrimSpace(string(stdout))
	if version == "" {
		return versionUnknown
	}

	return version
}

// configArg resolves the --config value for the requested mode. Any value
// other than "auto" selects the bundled rules file.
func (ei *engineInvoker) configArg(mode m.RulesetMode) (string, error) {
	if mode == m.RulesetAuto {
		return "auto", nil
	}

	if err := ei.rules.Verify(); err != nil {
		slog.Error("Bundled rules file is not usable", "path", ei.rules.Path(), "error", err)
		return "", fmt.Errorf("%w: %s", ErrRulesetMissing, ei.rules.Path())
	}

	return string(ei.rules.Path()), nil
}
