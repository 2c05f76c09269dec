package controller

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pinemarten/semgrepd/internal/domain"
	m "github.com/pinemarten/semgrepd/internal/model"
)

var (
	tuiTitleStyle   = lipgloss.NewStyle().Bold(true)
	tuiErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	tuiWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	tuiInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	tuiMutedStyle   = lipgloss.NewStyle().Faint(true)
)

func severityStyle(severity m.Severity) lipgloss.Style {
	switch severity {
	case m.SeverityError:
		return tuiErrorStyle
	case m.SeverityWarning:
		return tuiWarningStyle
	default:
		return tuiInfoStyle
	}
}

// ScanFunc produces a scan result; the TUI runs it asynchronously behind a
// spinner.
type ScanFunc func() (m.ScanResult, error)

// ScanTUI implements an interactive scan view using Bubble Tea: a spinner
// while the engine runs, then a scrollable findings list.
type ScanTUI struct {
	output io.Writer
	scan   ScanFunc
}

// NewScanTUI creates a new ScanTUI.
func NewScanTUI(output io.Writer, scan ScanFunc) *ScanTUI {
	return &ScanTUI{output: output, scan: scan}
}

// Run drives the scan and blocks until the view is closed. The scan result
// and error are returned so the command can decide its exit status.
func (t *ScanTUI) Run() (m.ScanResult, error) {
	model := newScanViewModel(t.scan)

	// Get initial terminal size
	if f, ok := t.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.width = width
			model.height = height
		}
	}

	program := tea.NewProgram(model, tea.WithOutput(t.output))

	final, err := program.Run()
	if err != nil {
		return m.ScanResult{}, err
	}

	view, ok := final.(scanViewModel)
	if !ok {
		return m.ScanResult{}, fmt.Errorf("unexpected final model %T", final)
	}

	return view.result, view.err
}

// scanDoneMsg carries the pipeline outcome into the Bubble Tea loop.
type scanDoneMsg struct {
	result m.ScanResult
	err    error
}

// scanViewModel represents the Bubble Tea model for an interactive scan.
type scanViewModel struct {
	scan     ScanFunc
	spin     spinner.Model
	scanning bool
	result   m.ScanResult
	err      error
	height   int
	width    int
	offset   int // Current scroll offset
	quitting bool
}

func newScanViewModel(scan ScanFunc) scanViewModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return scanViewModel{
		scan:     scan,
		spin:     spin,
		scanning: true,
	}
}

func (svm scanViewModel) Init() tea.Cmd {
	return tea.Batch(svm.spin.Tick, svm.runScan)
}

func (svm scanViewModel) runScan() tea.Msg {
	result, err := svm.scan()

	return scanDoneMsg{result: result, err: err}
}

func (svm scanViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		svm.height = msg.Height
		svm.width = msg.Width

		return svm, nil

	case scanDoneMsg:
		svm.scanning = false
		svm.result = msg.result
		svm.err = msg.err

		// Errors and short lists are printed on exit; only long lists
		// stay interactive for scrolling.
		if svm.err != nil || !svm.needsPagination() {
			svm.quitting = true
			return svm, tea.Quit
		}

		return svm, nil

	case spinner.TickMsg:
		if !svm.scanning {
			return svm, nil
		}

		var cmd tea.Cmd
		svm.spin, cmd = svm.spin.Update(msg)

		return svm, cmd

	case tea.KeyMsg:
		return svm.handleKeyPress(msg)
	}

	return svm, nil
}

func (svm scanViewModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		svm.quitting = true
		return svm, tea.Quit
	default:
		// Handle other key types in the string switch below
	}

	switch msg.String() {
	case "q":
		svm.quitting = true
		return svm, tea.Quit

	case "down", "j":
		svm.offset++

		maxOffset := svm.maxOffset()
		if svm.offset > maxOffset {
			svm.offset = maxOffset
		}

		return svm, nil

	case "up", "k":
		svm.offset--
		if svm.offset < 0 {
			svm.offset = 0
		}

		return svm, nil

	case "g", "home":
		svm.offset = 0

		return svm, nil

	case "G", "end":
		svm.offset = svm.maxOffset()

		return svm, nil

	case "d", "pgdown":
		svm.offset += svm.itemsPerPage()

		maxOffset := svm.maxOffset()
		if svm.offset > maxOffset {
			svm.offset = maxOffset
		}

		return svm, nil

	case "u", "pgup":
		svm.offset -= svm.itemsPerPage()
		if svm.offset < 0 {
			svm.offset = 0
		}

		return svm, nil
	}

	return svm, nil
}

// itemsPerPage calculates how many finding lines fit on screen.
func (svm scanViewModel) itemsPerPage() int {
	if svm.height == 0 {
		return 10 // Default
	}
	// Reserve space for:
	// - Title: 3 lines
	// - Summary: 2 lines
	// - Footer: 3 lines (empty + page + help)
	reserved := 8

	available := svm.height - reserved
	if available < 1 {
		return 1
	}

	return available
}

// maxOffset returns the maximum scroll offset.
func (svm scanViewModel) maxOffset() int {
	itemCount := len(svm.result.Findings)

	perPage := svm.itemsPerPage()
	if perPage <= 0 {
		return 0
	}

	maxOff := itemCount - perPage
	if maxOff < 0 {
		return 0
	}

	return maxOff
}

// needsPagination returns true if the findings list is too large to fit on
// screen.
func (svm scanViewModel) needsPagination() bool {
	total := len(svm.result.Findings)
	if total == 0 {
		return false
	}

	return total > svm.itemsPerPage() && svm.height > 0
}

func (svm scanViewModel) View() string {
	var b strings.Builder

	if svm.scanning {
		fmt.Fprintf(&b, "\n  %s Scanning...\n\n", svm.spin.View())
		return b.String()
	}

	if svm.err != nil {
		fmt.Fprintf(&b, "\n  %s\n\n", tuiErrorStyle.Render("scan failed: "+svm.err.Error()))
		return b.String()
	}

	svm.renderFindings(&b)

	return b.String()
}

func (svm scanViewModel) renderFindings(b *strings.Builder) {
	b.WriteString("\n  " + tuiTitleStyle.Render("Scan Results") + "\n\n")

	if len(svm.result.Findings) == 0 {
		fmt.Fprintf(b, "  No findings in %d file(s) (%d ms)\n",
			svm.result.FilesScanned, svm.result.DurationMs)

		return
	}

	allLines := svm.buildFindingLines()
	visibleLines := svm.applyPagination(allLines)

	for _, line := range visibleLines {
		fmt.Fprintf(b, "%s\n", line)
	}

	summary := domain.Summarize(svm.result.Findings)

	b.WriteString("\n")
	fmt.Fprintf(b, "  %s\n", tuiMutedStyle.Render(fmt.Sprintf(
		"%d finding(s) | error: %d | warning: %d | info: %d | scanned %d file(s) in %d ms",
		summary.Total,
		summary.BySeverity[m.SeverityError],
		summary.BySeverity[m.SeverityWarning],
		summary.BySeverity[m.SeverityInfo],
		svm.result.FilesScanned,
		svm.result.DurationMs,
	)))

	svm.renderFooter(b, len(allLines))
}

func (svm scanViewModel) buildFindingLines() []string {
	lines := make([]string, 0, len(svm.result.Findings))

	for _, f := range svm.result.Findings {
		severity := severityStyle(f.Severity).Render(string(f.Severity))

		lines = append(lines, fmt.Sprintf("  %-8s %s:%d  %s %s",
			severity,
			f.Path,
			f.Line,
			f.Message,
			tuiMutedStyle.Render("("+f.RuleID+")"),
		))
	}

	return lines
}

func (svm scanViewModel) applyPagination(allLines []string) []string {
	if !svm.needsPagination() {
		return allLines
	}

	perPage := svm.itemsPerPage()

	start := svm.offset
	if start >= len(allLines) {
		start = len(allLines) - 1
		if start < 0 {
			start = 0
		}
	}

	end := start + perPage
	if end > len(allLines) {
		end = len(allLines)
	}

	return allLines[start:end]
}

func (svm scanViewModel) renderFooter(b *strings.Builder, totalLines int) {
	if !svm.needsPagination() {
		return
	}

	perPage := svm.itemsPerPage()

	start := svm.offset + 1

	end := svm.offset + perPage
	if end > totalLines {
		end = totalLines
	}

	b.WriteString("\n")
	fmt.Fprintf(b, "  Showing %d-%d of %d\n", start, end, totalLines)
	b.WriteString("  ↑/k: up | ↓/j: down | g: top | G: bottom | q: quit\n")
}
