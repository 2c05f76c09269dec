package domain

import (
	"path/filepath"
	"strings"

	m "github.com/pinemarten/semgrepd/internal/model"
)

// securityRuleIDs lists the rule ids of the bundled ruleset that flag
// security-relevant patterns. Kept in sync with rules.yml.
var securityRuleIDs = map[string]struct{}{
	"hardcoded-secret-generic":    {},
	"sql-string-concat":           {},
	"weak-crypto-md5":             {},
	"weak-crypto-sha1":            {},
	"js-eval-usage":               {},
	"js-innerhtml":                {},
	"python-exec":                 {},
	"python-subprocess-shell":     {},
	"go-sql-format":               {},
	"rust-unsafe-block":           {},
	"path-traversal-python":       {},
	"path-traversal-go":           {},
	"path-traversal-node":         {},
	"command-injection-go":        {},
	"command-injection-node":      {},
	"ssrf-python":                 {},
	"ssrf-node":                   {},
	"insecure-deserialize-python": {},
	"insecure-deserialize-java":   {},
	"java-unsafe-reflection":      {},
	"log-injection":               {},
}

// qualityRuleIDs lists the rule ids classified as code quality findings.
var qualityRuleIDs = map[string]struct{}{
	"test-todo-skip": {},
}

// NormalizeFindings converts raw engine results into the caller-facing
// schema: rule ids lose their ruleset path prefix, severities collapse onto
// the three supported levels, and paths are rewritten relative to the
// workspace so scratch directories never leak to callers. Result order is
// preserved and the returned slice is never nil.
func NormalizeFindings(results []m.EngineResult, ws m.Path) []m.Finding {
	findings := make([]m.Finding, 0, len(results))

	for _, r := range results {
		ruleID := normalizeRuleID(r.CheckID)

		findings = append(findings, m.Finding{
			RuleID:   ruleID,
			Path:     relativizePath(r.Path, ws),
			Line:     r.Start.Line,
			Message:  r.Extra.Message,
			Severity: normalizeSeverity(r.Extra.Severity),
			Category: categorize(ruleID),
		})
	}

	return findings
}

// normalizeRuleID strips the ruleset path prefix the engine prepends, e.g.
// "rules.js-eval-usage" becomes "js-eval-usage". A wholly missing id maps to
// "unknown".
func normalizeRuleID(checkID string) string {
	if checkID == "" {
		return "unknown"
	}

	if i := strings.LastIndexByte(checkID, '.'); i >= 0 {
		return checkID[i+1:]
	}

	return checkID
}

// normalizeSeverity maps an engine severity token onto the caller-facing
// scale. Unrecognized tokens fall back to info.
func normalizeSeverity(raw string) m.Severity {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ERROR":
		return m.SeverityError
	case "WARNING":
		return m.SeverityWarning
	case "INFO":
		return m.SeverityInfo
	default:
		return m.SeverityInfo
	}
}

// categorize assigns the review category for a normalized rule id. Ids not
// in either list default to security so new rules surface in review instead
// of being silently filed as quality noise.
func categorize(ruleID string) m.Category {
	if _, ok := securityRuleIDs[ruleID]; ok {
		return m.CategorySecurity
	}

	if _, ok := qualityRuleIDs[ruleID]; ok {
		return m.CategoryQuality
	}

	return m.CategorySecurity
}

// relativizePath strips the workspace prefix from an engine-reported path
// and normalizes it to slash form.
func relativizePath(path string, ws m.Path) string {
	rel := strings.TrimPrefix(path, string(ws))
	rel = strings.TrimLeft(rel, "/\\")

	return filepath.ToSlash(rel)
}
