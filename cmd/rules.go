package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pinemarten/semgrepd/internal/adapter"
	"github.com/pinemarten/semgrepd/internal/controller"
	m "github.com/pinemarten/semgrepd/internal/model"
)

const rulesLongDescription = `Validate the bundled rules file and list the rules it contains.

The command fails when the file is missing, unparsable, or contains
empty or duplicate rule ids, so it can guard rule edits in CI.`

// rulesCmd represents the rules command.
var rulesCmd = newRulesCmd()

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Validate and list the bundled semgrep rules",
		Long:  rulesLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd)
		},
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command) error {
	store := adapter.NewLocalRulesetStore(m.Path(viper.GetString(rulesPathKey)))

	if err := store.Verify(); err != nil {
		return err
	}

	ruleset, err := store.Load()
	if err != nil {
		return err
	}

	if err := ruleset.Validate(); err != nil {
		return fmt.Errorf("rules file %s is invalid: %w", store.Path(), err)
	}

	cmd.Printf("%d rule(s) in %s\n\n", len(ruleset.Rules), store.Path())
	cmd.Print(controller.RenderRuleTable(ruleset.Rules))

	return nil
}
