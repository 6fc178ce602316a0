package stages

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/copytree/copytree/internal/cache"
	"github.com/copytree/copytree/internal/pipeline"
	"github.com/copytree/copytree/internal/registry"
)

// defaultTransformTimeout bounds a single per-file transformer invocation
// (spec.md §4.13: transformers may be "heavy" and call out to an LLM).
const defaultTransformTimeout = 2 * time.Minute

// TransformStage dispatches each file to the transformer resolved by the
// registry, preferring a profile-declared glob binding over extension/mime
// resolution, and caches results by content hash + transformer identity +
// options (spec.md §4.4/§4.13). Concurrency is bounded the same way
// FileLoadStage bounds it.
type TransformStage struct {
	pipeline.BaseStage

	Registry *registry.Registry
	Cache    *cache.Cache
	Timeout  time.Duration
}

// NewTransformStage builds a transform stage over reg, optionally backed by a
// content cache (nil disables caching).
func NewTransformStage(reg *registry.Registry, c *cache.Cache) *TransformStage {
	return &TransformStage{
		BaseStage: pipeline.BaseStage{StageName: "transform"},
		Registry:  reg,
		Cache:     c,
		Timeout:   defaultTransformTimeout,
	}
}

func (s *TransformStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	if err := s.Registry.ValidateDependencies(); err != nil {
		return nil, err
	}

	bindings := transformerBindings(rc.Profile)

	concurrency := rc.Options.MaxConcurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(rc.Context)
	g.SetLimit(concurrency)

	for _, fe := range in.Files {
		fe := fe
		if fe.Excluded || fe.IsBinary {
			continue
		}
		g.Go(func() error {
			return s.transformOne(gctx, rc, fe, bindings)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *TransformStage) transformOne(ctx context.Context, rc *pipeline.RunContext, fe *pipeline.FileEntry, bindings []pipeline.TransformerBinding) error {
	spec, err := s.resolve(fe, bindings)
	if err != nil {
		fe.TransformFailed = true
		return err
	}

	var cacheKey string
	if s.Cache != nil {
		cacheKey = cache.Key(spec.Name, fe.AbsPath, fe.ContentHash, 0)
		if cached, ok := s.Cache.Get(cacheKey); ok {
			fe.Content = cached
			return nil
		}
	}

	tctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	done := make(chan struct{})
	var result string
	var terr error
	go func() {
		result, terr = spec.Instance.Transform(tctx, fe)
		close(done)
	}()

	select {
	case <-tctx.Done():
		fe.TransformFailed = true
		return pipeline.NewTransformTimeoutError("transform", fe.Path)
	case <-done:
	}

	if terr != nil {
		fe.TransformFailed = true
		return pipeline.NewTransformError("transform", fe.Path, terr)
	}

	fe.Content = result
	if s.Cache != nil {
		s.Cache.Put(cacheKey, result)
	}
	return nil
}

// resolve prefers a profile-declared glob binding over the registry's
// extension/mime resolution, per spec.md §4.3 ("transformer bindings: file
// glob → transformer name and options").
func (s *TransformStage) resolve(fe *pipeline.FileEntry, bindings []pipeline.TransformerBinding) (*registry.Spec, error) {
	clean := filepath.ToSlash(fe.Path)
	for _, b := range bindings {
		if ok, _ := doublestar.Match(b.Glob, clean); ok {
			if spec, found := s.Registry.Get(b.Transformer); found {
				return spec, nil
			}
		}
	}
	return s.Registry.GetForFile(fe, mimeTypeFor(fe.Path))
}

func transformerBindings(p *pipeline.Profile) []pipeline.TransformerBinding {
	if p == nil {
		return nil
	}
	return p.Transformers
}

// mimeTypeFor gives the registry a coarse mime hint derived from extension;
// full content sniffing happens during FileLoad's binary detection, not here.
func mimeTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	default:
		return ""
	}
}
