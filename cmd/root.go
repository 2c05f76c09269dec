// Package cmd provides the root command and CLI setup for semgrepd.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pinemarten/semgrepd/internal/adapter"
	"github.com/pinemarten/semgrepd/internal/domain"
	m "github.com/pinemarten/semgrepd/internal/model"
)

// rulesPathFlag is a root-level flag overriding the bundled rules file location.
var rulesPathFlag string

// engineBinaryFlag overrides the semgrep binary to invoke.
var engineBinaryFlag string

// verboseFlag raises the log level to debug.
var verboseFlag bool

const rootLongDescription = `Semgrepd wraps the semgrep static analysis engine for code review
automation. Submitted source files are staged into an isolated scratch
workspace, scanned under a bounded timeout and reported back as
normalized findings.

Run "semgrepd serve" to expose the scanner as an HTTP service, or
"semgrepd scan" to check local files from the terminal.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "semgrepd",
		Short: "Semgrep scanning service for code review automation",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&rulesPathFlag, rulesFlagName, "r",
			viper.GetString(rulesPathKey),
			"path to the semgrep rules file",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(rulesFlagName), rulesPathKey)

	cmd.PersistentFlags().StringVar(&engineBinaryFlag, engineFlagName, viper.GetString(engineBinaryKey), "semgrep binary to invoke")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(engineFlagName), engineBinaryKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// pipeline bundles the scan dependencies assembled from the active configuration.
type pipeline struct {
	scanner domain.Scanner
	invoker domain.Invoker
	rules   adapter.RulesetStore
}

// buildPipeline assembles the scan pipeline from the current configuration.
// It runs per command invocation so flag, env and config overrides all apply.
func buildPipeline() pipeline {
	workspaceFS := adapter.NewLocalWorkspaceFS(viper.GetString(workspaceRootKey))
	runner := adapter.NewLocalEngineRunner(viper.GetString(engineBinaryKey))
	rules := adapter.NewLocalRulesetStore(m.Path(viper.GetString(rulesPathKey)))

	invoker := domain.NewEngineInvoker(runner, rules, domain.InvokerOptions{
		ScanTimeout:    time.Duration(viper.GetInt64(engineScanTimeoutKey)) * time.Second,
		VersionTimeout: time.Duration(viper.GetInt64(engineVersionTimeoutKey)) * time.Second,
		MaxConcurrent:  viper.GetInt64(engineMaxConcurrentKey),
	})

	scanner := domain.NewScanner(
		domain.NewWorkspaceManager(workspaceFS),
		domain.NewMaterializer(workspaceFS),
		invoker,
	)

	return pipeline{scanner: scanner, invoker: invoker, rules: rules}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
