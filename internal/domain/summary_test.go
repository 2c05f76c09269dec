package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "github.com/pinemarten/semgrepd/internal/model"
)

func TestSummarize(t *testing.T) {
	findings := []m.Finding{
		{RuleID: "js-eval-usage", Severity: m.SeverityError, Category: m.CategorySecurity},
		{RuleID: "js-innerhtml", Severity: m.SeverityWarning, Category: m.CategorySecurity},
		{RuleID: "test-todo-skip", Severity: m.SeverityInfo, Category: m.CategoryQuality},
		{RuleID: "weak-crypto-md5", Severity: m.SeverityError, Category: m.CategorySecurity},
	}

	summary := Summarize(findings)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.BySeverity[m.SeverityError])
	assert.Equal(t, 1, summary.BySeverity[m.SeverityWarning])
	assert.Equal(t, 1, summary.BySeverity[m.SeverityInfo])
	assert.Equal(t, 3, summary.ByCategory[m.CategorySecurity])
	assert.Equal(t, 1, summary.ByCategory[m.CategoryQuality])
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.BySeverity)
	assert.Empty(t, summary.ByCategory)
}

func TestBlocking(t *testing.T) {
	assert.False(t, Blocking(nil))
	assert.False(t, Blocking([]m.Finding{
		{Severity: m.SeverityWarning},
		{Severity: m.SeverityInfo},
	}))
	assert.True(t, Blocking([]m.Finding{
		{Severity: m.SeverityInfo},
		{Severity: m.SeverityError},
	}))
}
