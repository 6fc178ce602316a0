package stages

import (
	"github.com/copytree/copytree/internal/pipeline"
	"github.com/copytree/copytree/internal/rules"
)

// RulesetFilterStage evaluates the profile's rule sets via the rule
// evaluator (spec.md §4.1, §4.8): a file survives if rules.Accept passes.
// The `always` lists pass through unchanged, consistent with
// ProfileFilterStage.
type RulesetFilterStage struct {
	pipeline.BaseStage
}

func NewRulesetFilterStage() *RulesetFilterStage {
	return &RulesetFilterStage{BaseStage: pipeline.BaseStage{StageName: "ruleset-filter"}}
}

func (s *RulesetFilterStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	profile := rc.Profile
	if profile == nil || (len(profile.RuleSets) == 0 && len(profile.GlobalExcludeSets) == 0) {
		return in, nil
	}

	out := pipeline.NewWorkingSet()
	out.TotalFound = in.TotalFound
	out.SkipReasons = in.SkipReasons

	for _, fe := range in.Files {
		ok, err := rules.Accept(fe, profile.RuleSets, profile.GlobalExcludeSets, profile.AlwaysInclude, profile.AlwaysExclude)
		if err != nil {
			return nil, pipeline.NewRuleError("ruleset-filter", err.Error(), err)
		}
		if !ok {
			out.RecordSkip("ruleset")
			continue
		}
		out.Files = append(out.Files, fe)
	}
	return out, nil
}
