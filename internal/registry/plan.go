package registry

import "fmt"

// IssueSeverity distinguishes a plan problem that must block execution from
// one that is merely advisory.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// PlanIssue is one structured finding from ValidatePlan.
type PlanIssue struct {
	Severity IssueSeverity
	Stage    string
	Message  string
}

// ValidatePlan checks a proposed ordered list of transformer names against
// every rule spec.md §4.3 names: declared conflicts, output/input type
// mismatches between adjacent stages, an order-sensitive transformer placed
// after a non-idempotent one, missing required resources, an excess of heavy
// stages (warning), and redundant tags (warning).
func (r *Registry) ValidatePlan(stages []string) []PlanIssue {
	var issues []PlanIssue

	specs := make([]*Spec, 0, len(stages))
	for _, name := range stages {
		s, ok := r.Get(name)
		if !ok {
			issues = append(issues, PlanIssue{SeverityError, name, "transformer not registered"})
			continue
		}
		specs = append(specs, s)
	}

	heavyCount := 0
	seenTags := make(map[string]string)
	seenNonIdempotent := false

	for i, s := range specs {
		for _, conflict := range s.Traits.ConflictsWith {
			for _, other := range specs {
				if other.Name == conflict {
					issues = append(issues, PlanIssue{SeverityError, s.Name,
						fmt.Sprintf("conflicts with %s, both present in plan", conflict)})
				}
			}
		}

		if i+1 < len(specs) {
			next := specs[i+1]
			if !typesCompatible(s.Traits.OutputTypes, next.Traits.InputTypes) {
				issues = append(issues, PlanIssue{SeverityError, s.Name,
					fmt.Sprintf("output types %v incompatible with %s's input types %v", s.Traits.OutputTypes, next.Name, next.Traits.InputTypes)})
			}
		}

		if s.Traits.OrderSensitive && seenNonIdempotent {
			issues = append(issues, PlanIssue{SeverityError, s.Name,
				"order-sensitive transformer placed after a non-idempotent transformer"})
		}
		if !s.Traits.Idempotent {
			seenNonIdempotent = true
		}

		for _, req := range s.Traits.Requirements {
			if req == RequiresAPIKey {
				issues = append(issues, PlanIssue{SeverityWarning, s.Name, "requires an API key to be configured"})
			}
		}

		if s.Traits.Heavy {
			heavyCount++
		}

		for _, tag := range s.Traits.Tags {
			if owner, ok := seenTags[tag]; ok {
				issues = append(issues, PlanIssue{SeverityWarning, s.Name,
					fmt.Sprintf("redundant tag %q also declared by %s", tag, owner)})
			} else {
				seenTags[tag] = s.Name
			}
		}
	}

	if heavyCount > 2 {
		issues = append(issues, PlanIssue{SeverityWarning, "plan",
			fmt.Sprintf("%d heavy transformers in one plan may dominate run time", heavyCount)})
	}

	return issues
}

func typesCompatible(outputs, inputs []string) bool {
	if len(outputs) == 0 || len(inputs) == 0 {
		return true
	}
	for _, o := range outputs {
		for _, in := range inputs {
			if o == in || in == "any" || o == "any" {
				return true
			}
		}
	}
	return false
}

// PlanMove records one reordering optimizePlan made, for reporting back to
// the caller.
type PlanMove struct {
	Name string
	From int
	To   int
}

// classifiedStage pairs a transformer name with its ordering class:
// 0 = order-sensitive, 1 = light, 2 = heavy.
type classifiedStage struct {
	name  string
	class int
}

// OptimizePlan returns a stable reordering of stages: order-sensitive
// transformers first, then order-insensitive light transformers, then heavy
// transformers, preserving the relative order of equally-classed stages. It
// also reports every move made.
func (r *Registry) OptimizePlan(stages []string) ([]string, []PlanMove) {
	items := make([]classifiedStage, len(stages))
	for i, name := range stages {
		class := 1
		if s, ok := r.Get(name); ok {
			switch {
			case s.Traits.OrderSensitive:
				class = 0
			case s.Traits.Heavy:
				class = 2
			}
		}
		items[i] = classifiedStage{name: name, class: class}
	}

	reordered := make([]classifiedStage, len(items))
	copy(reordered, items)
	stableSortByClass(reordered)

	result := make([]string, len(reordered))
	var moves []PlanMove
	origIndex := make(map[string]int, len(items))
	for i, it := range items {
		origIndex[it.name] = i
	}
	for i, it := range reordered {
		result[i] = it.name
		if from := origIndex[it.name]; from != i {
			moves = append(moves, PlanMove{Name: it.name, From: from, To: i})
		}
	}
	return result, moves
}

// stableSortByClass is a small stable partition (not sort.SliceStable) so the
// three class buckets are built in one readable pass, preserving each
// bucket's relative input order.
func stableSortByClass(items []classifiedStage) {
	var buckets [3][]classifiedStage
	for _, it := range items {
		buckets[it.class] = append(buckets[it.class], it)
	}
	idx := 0
	for c := 0; c < 3; c++ {
		for _, it := range buckets[c] {
			items[idx] = it
			idx++
		}
	}
}
