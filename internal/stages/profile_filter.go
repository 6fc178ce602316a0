// Package stages implements the pipeline.Stage set of spec.md §4.8–§4.14:
// profile/ruleset/git filtering, dedup/sort/limit, file loading, and the
// character-budget stage. Each stage is a thin adapter over internal/rules,
// internal/ignore, and internal/discovery, following the teacher's
// single-purpose-type-per-concern style.
package stages

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/copytree/copytree/internal/pipeline"
)

// ProfileFilterStage applies the active profile's include/exclude glob lists
// using the same doublestar glob engine the ignore matcher and rule
// evaluator use (spec.md §4.8). The `always` lists pass through unchanged.
type ProfileFilterStage struct {
	pipeline.BaseStage
}

func NewProfileFilterStage() *ProfileFilterStage {
	return &ProfileFilterStage{BaseStage: pipeline.BaseStage{StageName: "profile-filter"}}
}

func (s *ProfileFilterStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	profile := rc.Profile
	if profile == nil || (len(profile.Include) == 0 && len(profile.Exclude) == 0) {
		return in, nil
	}

	always := toSet(profile.AlwaysInclude)
	alwaysExclude := toSet(profile.AlwaysExclude)

	out := pipeline.NewWorkingSet()
	out.TotalFound = in.TotalFound
	out.SkipReasons = in.SkipReasons

	for _, fe := range in.Files {
		if always[fe.Path] {
			out.Files = append(out.Files, fe)
			continue
		}
		if alwaysExclude[fe.Path] {
			out.RecordSkip("profile_always_exclude")
			continue
		}

		if matchesAny(profile.Exclude, fe.Path) {
			out.RecordSkip("profile_exclude")
			continue
		}
		if len(profile.Include) > 0 && !matchesAny(profile.Include, fe.Path) {
			out.RecordSkip("profile_include")
			continue
		}
		out.Files = append(out.Files, fe)
	}
	return out, nil
}

func matchesAny(globs []string, path string) bool {
	clean := filepath.ToSlash(path)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, clean); ok {
			return true
		}
		if strings.HasSuffix(g, "/") && strings.HasPrefix(clean, strings.TrimSuffix(g, "/")+"/") {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[filepath.ToSlash(it)] = true
	}
	return m
}
