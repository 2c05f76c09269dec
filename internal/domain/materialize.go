package domain

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pinemarten/semgrepd/internal/adapter"
	m "github.com/pinemarten/semgrepd/internal/model"
)

// Materializer writes caller-supplied file content into a scan workspace.
type Materializer struct {
	fs adapter.WorkspaceFS
}

// NewMaterializer constructs a Materializer backed by the provided
// filesystem adapter.
func NewMaterializer(fs adapter.WorkspaceFS) *Materializer {
	return &Materializer{fs: fs}
}

// Materialize stages the files into the workspace in request order,
// creating parent directories as needed. Duplicate paths overwrite earlier
// content. A path that is absolute or would resolve outside the workspace
// fails the whole batch with a PathEscapeError before anything is run
// against it.
func (mz *Materializer) Materialize(ws m.Path, files []m.FileRecord) error {
	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if !filepath.IsLocal(rel) {
			slog.Warn("Rejected file path escaping the workspace", "path", f.Path)
			return &PathEscapeError{Path: f.Path}
		}

		target := mz.fs.JoinPath(string(ws), rel)

		if err := mz.fs.MkdirAll(m.Path(filepath.Dir(string(target))), 0o750); err != nil {
			slog.Error("Failed to create workspace subdirectory", "path", f.Path, "error", err)
			return fmt.Errorf("failed to create workspace subdirectory for %s: %w", f.Path, err)
		}

		if err := mz.fs.WriteFile(target, []byte(f.Content), 0o600); err != nil {
			slog.Error("Failed to write file into workspace", "path", f.Path, "error", err)
			return fmt.Errorf("failed to write %s into workspace: %w", f.Path, err)
		}
	}

	return nil
}
