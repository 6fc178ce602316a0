package ignore

// Composite chains multiple Matchers and reports a path ignored if ANY
// source matches it. Evaluation order follows spec.md's ignore chain:
// built-in defaults, .gitignore, .ctreeignore, then CLI --exclude globs
// (the latter handled separately by the ProfileFilter stage).
//
// Grounded on the teacher's CompositeIgnorer (internal/discovery/ignore.go).
type Composite struct {
	matchers []Matcher
}

// NewComposite builds a Composite from the given matchers. Nil matchers are
// skipped.
func NewComposite(matchers ...Matcher) *Composite {
	filtered := make([]Matcher, 0, len(matchers))
	for _, m := range matchers {
		if m != nil {
			filtered = append(filtered, m)
		}
	}
	return &Composite{matchers: filtered}
}

func (c *Composite) IsIgnored(path string, isDir bool) bool {
	for _, m := range c.matchers {
		if m.IsIgnored(path, isDir) {
			return true
		}
	}
	return false
}

var _ Matcher = (*Composite)(nil)
