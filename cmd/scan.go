package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pinemarten/semgrepd/internal/controller"
	"github.com/pinemarten/semgrepd/internal/domain"
	m "github.com/pinemarten/semgrepd/internal/model"
)

// scanJSONFlag switches the scan output to the JSON response schema.
var scanJSONFlag bool

// scanPlainFlag forces the plain table output even on a TTY.
var scanPlainFlag bool

// scanExitCodeFlag makes the command exit non-zero on error findings.
var scanExitCodeFlag bool

// scanRulesetFlag selects the ruleset ("custom" or "auto").
var scanRulesetFlag string

const scanLongDescription = `Scan local files with semgrep and print the normalized findings.

The given path (default: current directory) is read into memory, staged
into a scratch workspace and scanned exactly like an HTTP scan request,
so terminal runs and service responses stay comparable.

On a TTY the findings are shown in an interactive pager; use --plain or
--json to force non-interactive output.`

// skipDirNames lists directories never staged for scanning.
var skipDirNames = map[string]struct{}{
	".git":         {},
	"vendor":       {},
	"node_modules": {},
}

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan local files and print findings",
		Long:  scanLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}

			return runScan(cmd, root)
		},
	}
	configureScanFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func configureScanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&scanJSONFlag, jsonFlagName, false, "print the scan result as JSON")
	cmd.Flags().BoolVar(&scanPlainFlag, plainFlagName, false, "force the plain table output even on a TTY")
	cmd.Flags().BoolVar(&scanExitCodeFlag, exitCodeFlagName, false, "exit non-zero when error findings are present")
	cmd.Flags().StringVar(&scanRulesetFlag, rulesetFlagName, string(m.RulesetCustom), `ruleset selection: "custom" or "auto"`)
}

func runScan(cmd *cobra.Command, root string) error {
	files, err := collectFiles(root)
	if err != nil {
		return err
	}

	deps := buildPipeline()

	request := m.ScanRequest{
		Files:       files,
		RulesConfig: m.RulesetMode(scanRulesetFlag),
	}

	var result m.ScanResult

	if !scanJSONFlag && !scanPlainFlag && controller.IsTTY(os.Stdout) {
		result, err = controller.NewScanTUI(cmd.OutOrStdout(), func() (m.ScanResult, error) {
			return deps.scanner.Scan(cmd.Context(), request)
		}).Run()
	} else {
		result, err = deps.scanner.Scan(cmd.Context(), request)
		if err == nil {
			err = scanRenderer(cmd).Render(result)
		}
	}

	if err != nil {
		return err
	}

	if scanExitCodeFlag && domain.Blocking(result.Findings) {
		blocking := domain.Summarize(result.Findings).BySeverity[m.SeverityError]
		return fmt.Errorf("%d blocking finding(s)", blocking)
	}

	return nil
}

func scanRenderer(cmd *cobra.Command) controller.Renderer {
	if scanJSONFlag {
		return controller.NewJSONRenderer(cmd)
	}

	return controller.NewTableRenderer(cmd)
}

// collectFiles reads the scan target into memory. A single file is staged
// under its base name; a directory is walked recursively with well-known
// dependency and VCS directories skipped.
func collectFiles(root string) ([]m.FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan path: %w", err)
	}

	if !info.IsDir() {
		content, err := os.ReadFile(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", root, err)
		}

		return []m.FileRecord{{Path: filepath.Base(root), Content: string(content)}}, nil
	}

	var files []m.FileRecord

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if _, skip := skipDirNames[info.Name()]; skip && path != root {
				return filepath.SkipDir
			}

			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		files = append(files, m.FileRecord{Path: filepath.ToSlash(rel), Content: string(content)})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
