package domain

import (
	m "github.com/pinemarten/semgrepd/internal/model"
)

// Summary aggregates findings by severity and category.
type Summary struct {
	Total      int
	BySeverity map[m.Severity]int
	ByCategory map[m.Category]int
}

// Summarize counts findings per severity and category.
func Summarize(findings []m.Finding) Summary {
	summary := Summary{
		Total:      len(findings),
		BySeverity: make(map[m.Severity]int),
		ByCategory: make(map[m.Category]int),
	}

	for _, f := range findings {
		summary.BySeverity[f.Severity]++
		summary.ByCategory[f.Category]++
	}

	return summary
}

// Blocking reports whether any finding carries the error severity. CI
// callers use it to decide the exit status.
func Blocking(findings []m.Finding) bool {
	for _, f := range findings {
		if f.Severity == m.SeverityError {
			return true
		}
	}

	return false
}
