// Package adapter contains infrastructure adapters for the semgrepd service.
package adapter

import (
	"os"
	"path/filepath"

	m "github.com/pinemarten/semgrepd/internal/model"
)

// WorkspaceFS abstracts the filesystem operations the domain layer relies on
// when staging scan workspaces. It intentionally hides direct `os` access so
// the scan logic can be tested without touching the disk.
type WorkspaceFS interface {
	// CreateTempDir creates a private scratch directory for one scan.
	CreateTempDir(pattern string) (m.Path, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path m.Path, perm os.FileMode) error

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalWorkspaceFS is the concrete implementation backed by the local
// filesystem. Root overrides the OS default temp directory when set.
type LocalWorkspaceFS struct {
	root string
}

// NewLocalWorkspaceFS constructs a LocalWorkspaceFS that creates workspaces
// under root, or under the OS temp directory when root is empty.
func NewLocalWorkspaceFS(root string) *LocalWorkspaceFS {
	return &LocalWorkspaceFS{root: root}
}

// CreateTempDir creates a private scratch directory for one scan.
func (a *LocalWorkspaceFS) CreateTempDir(pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp(a.root, pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// MkdirAll creates a directory and any missing parents.
func (a *LocalWorkspaceFS) MkdirAll(path m.Path, perm os.FileMode) error {
	return os.MkdirAll(string(path), perm)
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalWorkspaceFS) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// RemoveAll removes a directory and all its contents.
func (a *LocalWorkspaceFS) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// JoinPath joins path elements into a single path.
func (a *LocalWorkspaceFS) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
