package rules

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/copytree/copytree/internal/pipeline"
)

// RuleSet and Rule are aliases for the pipeline package's types. They live in
// internal/pipeline (alongside Profile, which embeds them) to avoid an import
// cycle; internal/rules is where they are actually evaluated.
type RuleSet = pipeline.RuleSet
type Rule = pipeline.Rule

// MatchRuleSet reports whether every rule in the set matches fe (a rule set
// matches a file iff ALL of its rules match, per spec.md §3).
func MatchRuleSet(fe *pipeline.FileEntry, rs RuleSet) (bool, error) {
	for _, r := range rs.Rules {
		fv, err := fieldReader(fe, r.Field)
		if err != nil {
			return false, err
		}
		ok, err := Evaluate(r.Operator, fv, r.Value)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// MatchAny reports whether fe matches at least one rule set in sets.
func MatchAny(fe *pipeline.FileEntry, sets []RuleSet) (bool, error) {
	for _, rs := range sets {
		ok, err := MatchRuleSet(fe, rs)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Accept implements the decision order of spec.md §4.1:
//  1. always-exclude glob match → reject.
//  2. always-include glob match → accept.
//  3. any global-exclude rule set matches → reject.
//  4. no include rule sets exist → accept.
//  5. else accept iff at least one include rule set matches.
func Accept(fe *pipeline.FileEntry, ruleSets, globalExcludeSets []RuleSet, alwaysInclude, alwaysExclude []string) (bool, error) {
	if matchGlobAny(fe.Path, alwaysExclude) {
		return false, nil
	}
	if matchGlobAny(fe.Path, alwaysInclude) {
		return true, nil
	}

	excluded, err := MatchAny(fe, globalExcludeSets)
	if err != nil {
		return false, err
	}
	if excluded {
		return false, nil
	}

	if len(ruleSets) == 0 {
		return true, nil
	}

	return MatchAny(fe, ruleSets)
}

func matchGlobAny(path string, globs []string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}
