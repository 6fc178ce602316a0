package format

import (
	"strings"
	"time"

	"github.com/copytree/copytree/internal/pipeline"
)

// OutputFormatStage renders the working set into rc.Options.Format and
// stores the result on ws.Rendered, consumed by the secret scanner and the
// Deliver stage (spec.md §4.16). Excluded entries are dropped from the
// rendered view but remain counted in statistics via ws.SkipReasons.
type OutputFormatStage struct {
	pipeline.BaseStage
}

func NewOutputFormatStage() *OutputFormatStage {
	return &OutputFormatStage{BaseStage: pipeline.BaseStage{StageName: "output-format"}}
}

func (s *OutputFormatStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	formatter, err := Get(rc.Options.Format)
	if err != nil {
		return nil, err
	}

	files := in.Files
	if rc.Options.OnlyTree {
		files = nil
	} else {
		rendered := make([]*pipeline.FileEntry, 0, len(in.Files))
		for _, fe := range in.Files {
			if !fe.Excluded {
				rendered = append(rendered, fe)
			}
		}
		files = rendered
	}

	meta := NewMetadata(time.Now(), rc.Options, rc.Profile, in)

	var b strings.Builder
	if err := formatter.Format(&b, meta, files); err != nil {
		return nil, pipeline.NewConfigurationError("output-format", "rendering output", err)
	}

	in.Rendered = b.String()
	return in, nil
}
