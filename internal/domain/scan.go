package domain

import (
	"context"
	"log/slog"
	"time"

	m "github.com/pinemarten/semgrepd/internal/model"
)

// Scanner runs the full scan pipeline for one request: acquire a workspace,
// materialize the files, invoke the engine, normalize the findings.
type Scanner interface {
	Scan(ctx context.Context, req m.ScanRequest) (m.ScanResult, error)
}

type scanner struct {
	workspaces *WorkspaceManager
	files      *Materializer
	invoker    Invoker
}

// NewScanner constructs a Scanner from its three pipeline stages.
func NewScanner(workspaces *WorkspaceManager, files *Materializer, invoker Invoker) Scanner {
	return &scanner{
		workspaces: workspaces,
		files:      files,
		invoker:    invoker,
	}
}

func (s *scanner) Scan(ctx context.Context, req m.ScanRequest) (m.ScanResult, error) {
	// Nothing to stage means nothing to run; the engine is never started.
	if len(req.Files) == 0 {
		return m.ScanResult{Findings: []m.Finding{}}, nil
	}

	ws, err := s.workspaces.Acquire(ctx)
	if err != nil {
		return m.ScanResult{}, err
	}
	defer s.workspaces.Release(ws)

	start := time.Now()

	if err := s.files.Materialize(ws, req.Files); err != nil {
		return m.ScanResult{}, err
	}

	outcome, err := s.invoker.Invoke(ctx, ws, req.RulesConfig)
	if err != nil {
		return m.ScanResult{}, err
	}

	switch outcome.Status {
	case m.OutcomeTimeout:
		return m.ScanResult{}, ErrScanTimeout
	case m.OutcomeToolFailure:
		return m.ScanResult{}, &ToolFailureError{Diagnostic: outcome.Diagnostic}
	}

	findings := NormalizeFindings(outcome.Output.Results, ws)

	result := m.ScanResult{
		Findings:     findings,
		DurationMs:   time.Since(start).Milliseconds(),
		FilesScanned: len(req.Files),
	}

	slog.Info("Scan completed",
		"files", result.FilesScanned,
		"findings", len(result.Findings),
		"durationMs", result.DurationMs,
	)

	return result, nil
}
