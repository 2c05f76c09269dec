package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pinemarten/semgrepd/internal/domain"
	m "github.com/pinemarten/semgrepd/internal/model"
)

// TableRenderer implements Renderer using cobra Command's output writer.
type TableRenderer struct {
	cmd *cobra.Command
}

// NewTableRenderer creates a new TableRenderer.
func NewTableRenderer(cmd *cobra.Command) *TableRenderer {
	return &TableRenderer{cmd: cmd}
}

// Render prints the findings table followed by a severity summary line.
func (r *TableRenderer) Render(result m.ScanResult) error {
	if len(result.Findings) == 0 {
		r.printf("No findings in %d file(s) (%d ms)\n", result.FilesScanned, result.DurationMs)
		return nil
	}

	r.printf("\n%s\n", renderFindingsTable(result.Findings))

	summary := domain.Summarize(result.Findings)
	r.printf("Findings: %d | error: %d | warning: %d | info: %d | scanned %d file(s) in %d ms\n",
		summary.Total,
		summary.BySeverity[m.SeverityError],
		summary.BySeverity[m.SeverityWarning],
		summary.BySeverity[m.SeverityInfo],
		result.FilesScanned,
		result.DurationMs,
	)

	return nil
}

func renderFindingsTable(findings []m.Finding) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Rule", "Path", "Line", "Severity", "Category", "Message"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
	})

	for _, f := range findings {
		table.Append([]string{
			f.RuleID,
			f.Path,
			strconv.Itoa(f.Line),
			string(f.Severity),
			string(f.Category),
			f.Message,
		})
	}

	table.Render()

	return tableBuffer.String()
}

func (r *TableRenderer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.cmd.OutOrStdout(), format, args...)
}

// RenderRuleTable formats a parsed ruleset for terminal display.
func RenderRuleTable(rules []m.Rule) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Rule", "Severity", "Languages", "Message"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, rule := range rules {
		table.Append([]string{
			rule.ID,
			rule.Severity,
			strings.Join(rule.Languages, ", "),
			rule.Message,
		})
	}

	table.Render()

	return tableBuffer.String()
}

// JSONRenderer implements Renderer by emitting the result document verbatim,
// matching the HTTP response schema.
type JSONRenderer struct {
	cmd *cobra.Command
}

// NewJSONRenderer creates a new JSONRenderer.
func NewJSONRenderer(cmd *cobra.Command) *JSONRenderer {
	return &JSONRenderer{cmd: cmd}
}

// Render writes the scan result as indented JSON.
func (r *JSONRenderer) Render(result m.ScanResult) error {
	encoder := json.NewEncoder(r.cmd.OutOrStdout())
	encoder.SetIndent("", "  ")

	return encoder.Encode(result)
}
