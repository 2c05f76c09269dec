package model

import "fmt"

// Ruleset is the parsed bundled rules file.
type Ruleset struct {
	Rules []Rule `yaml:"rules"`
}

// Rule is the subset of a rule definition the service inspects. Unknown keys
// in the rules file (patterns, metadata, fix, ...) are ignored on load.
type Rule struct {
	ID        string   `yaml:"id"`
	Message   string   `yaml:"message"`
	Severity  string   `yaml:"severity"`
	Languages []string `yaml:"languages"`
}

// Validate reports conditions that would make the rules file unusable for
// the engine: an empty rule list, empty ids, or duplicate ids.
func (r Ruleset) Validate() error {
	if len(r.Rules) == 0 {
		return fmt.Errorf("rules file contains no rules")
	}
	seen := make(map[string]struct{}, len(r.Rules))
	for i, rule := range r.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule at index %d has an empty id", i)
		}
		if _, ok := seen[rule.ID]; ok {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = struct{}{}
	}
	return nil
}
