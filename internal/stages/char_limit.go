package stages

import (
	"github.com/copytree/copytree/internal/pipeline"
)

// CharLimitStage applies a global character budget across all files, per
// spec.md §4.14. It sums content lengths in the working set's current
// (sorted) order; once the running total would exceed the budget, that file
// is truncated to the remaining budget and every subsequent file is
// dropped. Adapted from the teacher's token-budget BudgetEnforcer
// (tokenizer/budget.go) from token units to character units, and from
// skip-only to truncate-then-drop, per the chosen Open Question resolution.
type CharLimitStage struct {
	pipeline.BaseStage
}

func NewCharLimitStage() *CharLimitStage {
	return &CharLimitStage{BaseStage: pipeline.BaseStage{StageName: "char-limit"}}
}

func (s *CharLimitStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	budget := rc.Options.CharLimit
	if budget <= 0 {
		return in, nil
	}

	var total int
	truncated, droppedCount := 0, 0
	kept := make([]*pipeline.FileEntry, 0, len(in.Files))
	overBudget := false

	for _, fe := range in.Files {
		if overBudget {
			droppedCount++
			continue
		}

		length := len(fe.Content)
		if total+length <= budget {
			total += length
			kept = append(kept, fe)
			continue
		}

		remaining := budget - total
		if remaining < 0 {
			remaining = 0
		}
		fe.OriginalLength = length
		fe.Content = fe.Content[:remaining]
		fe.Truncated = true
		total = budget
		truncated++
		kept = append(kept, fe)
		overBudget = true
	}

	in.Files = kept
	if in.SkipReasons == nil {
		in.SkipReasons = make(map[string]int)
	}
	if truncated > 0 {
		in.SkipReasons["char_limit_truncated"] = truncated
	}
	if droppedCount > 0 {
		in.SkipReasons["char_limit_dropped"] = droppedCount
	}
	return in, nil
}
