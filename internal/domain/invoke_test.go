package domain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/pinemarten/semgrepd/internal/model"
)

// fakeRunner scripts engine process behavior.
type fakeRunner struct {
	mu       sync.Mutex
	calls    int
	lastArgs []string
	run      func(ctx context.Context, args ...string) ([]byte, []byte, int, error)
}

func (f *fakeRunner) Run(ctx context.Context, args ...string) ([]byte, []byte, int, error) {
	f.mu.Lock()
	f.calls++
	f.lastArgs = args
	f.mu.Unlock()

	return f.run(ctx, args...)
}

// fakeRulesetStore scripts rules file availability.
type fakeRulesetStore struct {
	path      m.Path
	verifyErr error
	verified  int
}

func (f *fakeRulesetStore) Path() m.Path             { return f.path }
func (f *fakeRulesetStore) Verify() error            { f.verified++; return f.verifyErr }
func (f *fakeRulesetStore) Load() (m.Ruleset, error) { return m.Ruleset{}, nil }

func staticRunner(stdout, stderr string, exitCode int, err error) *fakeRunner {
	return &fakeRunner{run: func(context.Context, ...string) ([]byte, []byte, int, error) {
		return []byte(stdout), []byte(stderr), exitCode, err
	}}
}

const emptyResults = `{"results": [], "errors": []}`

func TestEngineInvoker_Invoke_CommandShape(t *testing.T) {
	runner := staticRunner(emptyResults, "", 0, nil)
	store := &fakeRulesetStore{path: "/opt/semgrepd/rules.yml"}

	invoker := NewEngineInvoker(runner, store, InvokerOptions{})

	outcome, err := invoker.Invoke(context.Background(), "/tmp/semgrep-scan-1", m.RulesetCustom)
	require.NoError(t, err)
	require.Equal(t, m.OutcomeFindings, outcome.Status)

	require.Equal(t, []string{
		"--config", "/opt/semgrepd/rules.yml",
		"--json",
		"--no-git-ignore",
		"--quiet",
		"/tmp/semgrep-scan-1",
	}, runner.lastArgs)

	assert.Equal(t, 1, store.verified)
}

func TestEngineInvoker_Invoke_ExitOneIsSuccess(t *testing.T) {
	stdout := `{"results": [{"check_id": "rules.js-eval-usage", "path": "/tmp/ws/app.js",
		"start": {"line": 3, "col": 1}, "end": {"line": 3, "col": 10},
		"extra": {"message": "Avoid eval()", "severity": "ERROR"}}]}`

	invoker := NewEngineInvoker(staticRunner(stdout, "", 1, nil), &fakeRulesetStore{path: "rules.yml"}, InvokerOptions{})

	outcome, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
	require.NoError(t, err)

	require.Equal(t, m.OutcomeFindings, outcome.Status)
	require.Len(t, outcome.Output.Results, 1)
	assert.Equal(t, "rules.js-eval-usage", outcome.Output.Results[0].CheckID)
	assert.Equal(t, 3, outcome.Output.Results[0].Start.Line)
	assert.Equal(t, "ERROR", outcome.Output.Results[0].Extra.Severity)
}

func TestEngineInvoker_Invoke_UnexpectedExitCode(t *testing.T) {
	invoker := NewEngineInvoker(
		staticRunner("", "fatal: no semgrep rules loaded", 2, nil),
		&fakeRulesetStore{path: "rules.yml"},
		InvokerOptions{},
	)

	outcome, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
	require.NoError(t, err)

	require.Equal(t, m.OutcomeToolFailure, outcome.Status)
	assert.Contains(t, outcome.Diagnostic, "semgrep error:")
	assert.Contains(t, outcome.Diagnostic, "fatal: no semgrep rules loaded")
}

func TestEngineInvoker_Invoke_StderrExcerptBounded(t *testing.T) {
	longStderr := strings.Repeat("x", 2000)

	invoker := NewEngineInvoker(
		staticRunner("", longStderr, 7, nil),
		&fakeRulesetStore{path: "rules.yml"},
		InvokerOptions{},
	)

	outcome, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
	require.NoError(t, err)

	require.Equal(t, m.OutcomeToolFailure, outcome.Status)
	assert.LessOrEqual(t, len(outcome.Diagnostic), maxStderrDiagnostic+len("semgrep error: "))
}

func TestEngineInvoker_Invoke_MalformedOutput(t *testing.T) {
	garbage := "Traceback (most recent call last):" + strings.Repeat(" boom", 200)

	invoker := NewEngineInvoker(
		staticRunner(garbage, "", 0, nil),
		&fakeRulesetStore{path: "rules.yml"},
		InvokerOptions{},
	)

	outcome, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
	require.NoError(t, err)

	require.Equal(t, m.OutcomeToolFailure, outcome.Status)
	assert.Contains(t, outcome.Diagnostic, "failed to parse semgrep output:")
	assert.LessOrEqual(t, len(outcome.Diagnostic), maxStdoutDiagnostic+len("failed to parse semgrep output: "))
}

func TestEngineInvoker_Invoke_StartFailure(t *testing.T) {
	invoker := NewEngineInvoker(
		staticRunner("", "", -1, errors.New(`exec: "semgrep": executable file not found in $PATH`)),
		&fakeRulesetStore{path: "rules.yml"},
		InvokerOptions{},
	)

	outcome, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
	require.NoError(t, err)

	require.Equal(t, m.OutcomeToolFailure, outcome.Status)
	assert.Contains(t, outcome.Diagnostic, "failed to run semgrep")
	assert.Contains(t, outcome.Diagnostic, "executable file not found")
}

func TestEngineInvoker_Invoke_Timeout(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, _ ...string) ([]byte, []byte, int, error) {
		<-ctx.Done()
		return nil, nil, -1, nil
	}}

	invoker := NewEngineInvoker(runner, &fakeRulesetStore{path: "rules.yml"}, InvokerOptions{
		ScanTimeout: 20 * time.Millisecond,
	})

	outcome, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
	require.NoError(t, err)
	require.Equal(t, m.OutcomeTimeout, outcome.Status)
}

func TestEngineInvoker_Invoke_CallerCancellation(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, _ ...string) ([]byte, []byte, int, error) {
		<-ctx.Done()
		return nil, nil, -1, nil
	}}

	invoker := NewEngineInvoker(runner, &fakeRulesetStore{path: "rules.yml"}, InvokerOptions{
		ScanTimeout: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := invoker.Invoke(ctx, "/tmp/ws", m.RulesetCustom)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngineInvoker_Invoke_AutoModeSkipsRulesFile(t *testing.T) {
	runner := staticRunner(emptyResults, "", 0, nil)
	store := &fakeRulesetStore{path: "rules.yml", verifyErr: errors.New("should not be checked")}

	invoker := NewEngineInvoker(runner, store, InvokerOptions{})

	outcome, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetAuto)
	require.NoError(t, err)
	require.Equal(t, m.OutcomeFindings, outcome.Status)

	assert.Equal(t, 0, store.verified)
	assert.Equal(t, "auto", runner.lastArgs[1])
}

func TestEngineInvoker_Invoke_MissingRulesFile(t *testing.T) {
	runner := staticRunner(emptyResults, "", 0, nil)
	store := &fakeRulesetStore{path: "/opt/semgrepd/rules.yml", verifyErr: errors.New("no such file")}

	invoker := NewEngineInvoker(runner, store, InvokerOptions{})

	_, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
	require.ErrorIs(t, err, ErrRulesetMissing)
	assert.Contains(t, err.Error(), "/opt/semgrepd/rules.yml")

	// A configuration error must never launch the engine.
	assert.Equal(t, 0, runner.calls)
}

func TestEngineInvoker_Invoke_DefaultModeIsCustom(t *testing.T) {
	runner := staticRunner(emptyResults, "", 0, nil)
	store := &fakeRulesetStore{path: "/opt/semgrepd/rules.yml"}

	invoker := NewEngineInvoker(runner, store, InvokerOptions{})

	_, err := invoker.Invoke(context.Background(), "/tmp/ws", "")
	require.NoError(t, err)

	assert.Equal(t, 1, store.verified)
	assert.Equal(t, "/opt/semgrepd/rules.yml", runner.lastArgs[1])
}

func TestEngineInvoker_Invoke_ConcurrencyBounded(t *testing.T) {
	var inFlight, peak atomic.Int64

	runner := &fakeRunner{run: func(context.Context, ...string) ([]byte, []byte, int, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return []byte(emptyResults), nil, 0, nil
	}}

	invoker := NewEngineInvoker(runner, &fakeRulesetStore{path: "rules.yml"}, InvokerOptions{
		MaxConcurrent: 1,
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := invoker.Invoke(context.Background(), "/tmp/ws", m.RulesetCustom)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), peak.Load(), "more than one engine process ran at once")
}

func TestEngineInvoker_Version(t *testing.T) {
	t.Run("reports trimmed stdout", func(t *testing.T) {
		invoker := NewEngineInvoker(staticRunner("1.86.0\n", "", 0, nil), &fakeRulesetStore{}, InvokerOptions{})
		assert.Equal(t, "1.86.0", invoker.Version(context.Background()))
	})

	t.Run("non-zero exit falls back to unknown", func(t *testing.T) {
		invoker := NewEngineInvoker(staticRunner("", "broken install", 2, nil), &fakeRulesetStore{}, InvokerOptions{})
		assert.Equal(t, "unknown", invoker.Version(context.Background()))
	})

	t.Run("start failure falls back to unknown", func(t *testing.T) {
		invoker := NewEngineInvoker(staticRunner("", "", -1, errors.New("not found")), &fakeRulesetStore{}, InvokerOptions{})
		assert.Equal(t, "unknown", invoker.Version(context.Background()))
	})

	t.Run("empty output falls back to unknown", func(t *testing.T) {
		invoker := NewEngineInvoker(staticRunner("  \n", "", 0, nil), &fakeRulesetStore{}, InvokerOptions{})
		assert.Equal(t, "unknown", invoker.Version(context.Background()))
	})
}
