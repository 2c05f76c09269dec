// Package model defines the data structures exchanged between the scan
// pipeline and its callers.
package model

// Severity is the caller-facing severity of a finding. The normalizer maps
// every raw engine token onto exactly one of these three values.
type Severity string

const (
	// SeverityError marks findings the review pipeline should block on.
	SeverityError Severity = "error"
	// SeverityWarning marks findings worth surfacing without blocking.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks informational findings and is the fallback for
	// unrecognized engine tokens.
	SeverityInfo Severity = "info"
)

// Category classifies a finding for the review pipeline.
type Category string

const (
	// CategorySecurity is the default category; unknown rule ids land here
	// so that new rules are never silently hidden from security review.
	CategorySecurity Category = "security"
	// CategoryQuality covers lint-style findings.
	CategoryQuality Category = "quality"
)

// Finding is a single normalized analysis result. Path is relative to the
// caller's original tree; workspace internals never leak through it.
type Finding struct {
	RuleID   string   `json:"ruleId"`
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
}

// ScanResult is the response payload for one scan. FilesScanned counts the
// input records, independent of how many the engine reported on.
type ScanResult struct {
	Findings     []Finding `json:"findings"`
	DurationMs   int64     `json:"durationMs"`
	FilesScanned int       `json:"filesScanned"`
}
