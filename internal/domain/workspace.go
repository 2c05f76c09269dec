// Package domain contains the core scan pipeline: workspace lifecycle, file
// materialization, engine invocation and result normalization.
package domain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pinemarten/semgrepd/internal/adapter"
	m "github.com/pinemarten/semgrepd/internal/model"
)

// workspacePattern names scan directories so stray ones are recognizable.
const workspacePattern = "semgrep-scan-*"

// WorkspaceManager owns the lifecycle of per-scan scratch directories. Every
// Acquire must be paired with a deferred Release; Release never fails the
// scan.
type WorkspaceManager struct {
	fs adapter.WorkspaceFS
}

// NewWorkspaceManager constructs a WorkspaceManager backed by the provided
// filesystem adapter.
func NewWorkspaceManager(fs adapter.WorkspaceFS) *WorkspaceManager {
	return &WorkspaceManager{fs: fs}
}

// Acquire creates a fresh workspace directory exclusively owned by one scan.
func (wm *WorkspaceManager) Acquire(ctx context.Context) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ws, err := wm.fs.CreateTempDir(workspacePattern)
	if err != nil {
		slog.Error("Failed to create scan workspace", "error", err)
		return "", fmt.Errorf("failed to create scan workspace: %w", err)
	}

	return ws, nil
}

// Release removes the workspace, logging errors if cleanup fails.
func (wm *WorkspaceManager) Release(ws m.Path) {
	if ws == "" {
		return
	}

	if err := wm.fs.RemoveAll(ws); err != nil {
		slog.Error("Failed to remove scan workspace", "workspace", ws, "error", err)
	}
}
