package stages

import (
	"github.com/copytree/copytree/internal/discovery"
	"github.com/copytree/copytree/internal/pipeline"
)

// GitFilterStage annotates or filters FileEntries by git working-tree
// status (spec.md §4.9). Modes:
//   - "" (disabled): no-op passthrough.
//   - "modified": working-tree changes since last commit (git status
//     --porcelain); files outside the status map are dropped.
//   - "changed": diff against rc.Options.GitRef (git diff --name-status);
//     files outside the diff are dropped.
//
// When neither mode drops files, the stage only annotates GitStatus.
type GitFilterStage struct {
	pipeline.BaseStage
}

func NewGitFilterStage() *GitFilterStage {
	return &GitFilterStage{BaseStage: pipeline.BaseStage{StageName: "git-filter"}}
}

func (s *GitFilterStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	mode := rc.Options.GitMode
	if mode == "" {
		return in, nil
	}

	var statuses map[string]pipeline.GitStatus
	var err error
	switch mode {
	case "modified":
		statuses, err = discovery.GitStatusMap(rc.Options.Dir)
	case "changed":
		statuses, err = discovery.GitDiffNames(rc.Options.Dir, rc.Options.GitRef)
	default:
		return in, nil
	}
	if err != nil {
		return nil, pipeline.NewGitError("git-filter", "reading git status", err)
	}

	out := pipeline.NewWorkingSet()
	out.TotalFound = in.TotalFound
	out.SkipReasons = in.SkipReasons

	for _, fe := range in.Files {
		status, ok := statuses[fe.Path]
		if !ok {
			out.RecordSkip("git_unchanged")
			continue
		}
		fe.GitStatus = status
		out.Files = append(out.Files, fe)
	}
	return out, nil
}
