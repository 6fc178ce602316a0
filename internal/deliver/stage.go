package deliver

import (
	"io"

	"github.com/copytree/copytree/internal/pipeline"
)

// Stage is the terminal pipeline.Stage wrapping Deliver: it writes
// rc.Options.Info statistics are reported by the caller separately, this
// stage's only job is getting ws.Rendered to its destination.
type Stage struct {
	pipeline.BaseStage

	Stdout io.Writer

	// LastResult records the outcome of the most recent Process call so the
	// CLI layer can report it (path written, clipboard fallback, etc.)
	// without re-deriving the delivery decision.
	LastResult *Result
}

// NewStage builds a delivery stage. stdout is the writer used for
// TargetStdout and for reference/clipboard-fallback notices.
func NewStage(stdout io.Writer) *Stage {
	return &Stage{
		BaseStage: pipeline.BaseStage{StageName: "deliver"},
		Stdout:    stdout,
	}
}

func (s *Stage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	if rc.Options.DryRun {
		return in, nil
	}

	result, err := Deliver(rc, in.Rendered, s.Stdout)
	if err != nil {
		return nil, err
	}
	s.LastResult = result
	return in, nil
}
