// Package controller provides the HTTP transport and the terminal output
// adapters for scan results.
package controller

import (
	"io"
	"os"

	"golang.org/x/term"

	m "github.com/pinemarten/semgrepd/internal/model"
)

// Renderer displays one scan result to the operator. Implementations cover
// plain tables, JSON and the interactive terminal view.
type Renderer interface {
	Render(result m.ScanResult) error
}

// IsTTY reports whether w is attached to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
