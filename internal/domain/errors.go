package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors the transport layer maps to dedicated status codes.
var (
	// ErrRulesetMissing means the bundled rules file is absent or unusable.
	// Scans in custom mode cannot run without it.
	ErrRulesetMissing = errors.New("rules file not found")

	// ErrScanTimeout means the engine exceeded the scan timeout and was
	// killed before producing results.
	ErrScanTimeout = errors.New("semgrep scan timed out")
)

// ToolFailureError reports an engine run that ended without usable results:
// an unexpected exit code, a process that never started, or output that does
// not parse. Diagnostic is a bounded excerpt of the engine's own output.
type ToolFailureError struct {
	Diagnostic string
}

func (e *ToolFailureError) Error() string {
	return e.Diagnostic
}

// PathEscapeError reports a request file whose path would resolve outside
// the scan workspace.
type PathEscapeError struct {
	Path string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("file path escapes the scan workspace: %s", e.Path)
}
