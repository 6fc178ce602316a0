package config

import (
	"log/slog"

	"github.com/copytree/copytree/internal/pipeline"
)

// ToRuntimeProfile converts a fully resolved (inheritance-flattened) Profile
// document into the pipeline.Profile shape the stages actually consume.
// Name is supplied separately since Profile itself does not carry it (it is
// the map key in Config.Profile).
func ToRuntimeProfile(name string, p *Profile) *pipeline.Profile {
	rp := &pipeline.Profile{
		Name:          name,
		Include:       append([]string(nil), p.Include...),
		Exclude:       append([]string(nil), p.Ignore...),
		AlwaysInclude: append([]string(nil), p.Always.Include...),
		AlwaysExclude: append([]string(nil), p.Always.Exclude...),
		External:      append([]string(nil), p.External...),
		OutputDefaults: pipeline.OutputDefaults{
			Format: pipeline.OutputFormat(p.Format),
			Output: p.Output,
		},
	}

	for _, rs := range p.Rules {
		ruleSet := pipeline.RuleSet{Name: rs.Name}
		for _, r := range rs.Rules {
			ruleSet.Rules = append(ruleSet.Rules, pipeline.Rule{
				Field:    r.Field,
				Operator: r.Operator,
				Value:    r.Value,
			})
		}
		rp.RuleSets = append(rp.RuleSets, ruleSet)
	}

	for _, t := range p.Transformers {
		rp.Transformers = append(rp.Transformers, pipeline.TransformerBinding{
			Glob:        t.Glob,
			Transformer: t.Transformer,
			Options:     t.Options,
		})
	}

	return rp
}

// ToOptions converts parsed CLI flags into the pipeline.Options bundle the
// driver's stages consume. Call after ValidateFlags has normalized fv.
func ToOptions(fv *FlagValues) *pipeline.Options {
	gitMode := ""
	gitRef := ""
	switch {
	case fv.Changed != "":
		gitMode = "changed"
		gitRef = fv.Changed
	case fv.Modified:
		gitMode = "modified"
	}

	return &pipeline.Options{
		Dir:             fv.Dir,
		ProfileName:     fv.Profile,
		Filters:         fv.Filters,
		Excludes:        fv.Excludes,
		MaxDepth:        fv.Depth,
		GitMode:         gitMode,
		GitRef:          gitRef,
		External:        fv.External,
		AIFilterDesc:    fv.AIFilter,
		Instructions:    fv.Instructions,
		OrderBy:         fv.OrderBy,
		Format:          pipeline.OutputFormat(fv.Format),
		Output:          fv.Output,
		Display:         fv.Display,
		AsReference:     fv.AsReference,
		OnlyTree:        fv.OnlyTree,
		CharLimit:       fv.CharLimit,
		AddLineNumbers:  fv.AddLineNumbers,
		Info:            fv.Info,
		DryRun:          fv.DryRun,
		StateKey:        fv.State,
		ContinueOnError: fv.ContinueOnError,
		Parallel:        fv.Parallel,
		MaxConcurrency:  fv.MaxConcurrency,
		MaxFiles:        fv.MaxFiles,
		MaxTotalSize:    fv.MaxTotalSize,
		AllowSecrets:    fv.AllowSecrets,
		TUI:             fv.TUI,
		CacheEnabled:    !fv.NoCache,
		CacheDir:        fv.CacheDir,
	}
}

// LoadProfile resolves the profile named by fv.Profile against the repo
// config file (copytree.toml, discovered from fv.Dir upward) and, failing
// that, the user's global config file, falling back to the built-in default
// profile when neither exists. The result is ready to pass to
// pipeline.NewRunContext.
func LoadProfile(fv *FlagValues) (*pipeline.Profile, error) {
	profiles := map[string]*Profile{}

	if path, err := DiscoverGlobalConfig(); err == nil && path != "" {
		if cfg, err := LoadFromFile(path); err == nil {
			for name, p := range cfg.Profile {
				profiles[name] = p
			}
		} else {
			slog.Warn("ignoring unreadable global config", "path", path, "err", err)
		}
	}

	if path, err := DiscoverRepoConfig(fv.Dir); err == nil && path != "" {
		if cfg, err := LoadFromFile(path); err == nil {
			for name, p := range cfg.Profile {
				profiles[name] = p
			}
		} else {
			slog.Warn("ignoring unreadable repo config", "path", path, "err", err)
		}
	}

	res, err := ResolveProfile(fv.Profile, profiles)
	if err != nil {
		return nil, err
	}
	return ToRuntimeProfile(fv.Profile, res.Profile), nil
}
