package registry

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/copytree/copytree/internal/pipeline"
)

// Transformer is the capability interface every registered transformer
// implements: given a file entry, produce replacement content. Variants
// (default loader, markdown strip, CSV preview, code summary, image
// description) are registered, not inherited, per spec.md §9.
type Transformer interface {
	Transform(ctx context.Context, fe *pipeline.FileEntry) (string, error)
}

// Spec is a registered transformer: its name, instance, matching criteria,
// and traits.
type Spec struct {
	Name       string
	Instance   Transformer
	Priority   int
	Extensions []string // without leading dot, lowercase
	MimeTypes  []string
	Default    bool
	Traits     Traits
}

// Registry maps file paths/mime types to transformer instances. Registration
// is per-pipeline (spec.md §4.3: "a registry object is per-pipeline").
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{specs: make(map[string]*Spec)}
}

// Register adds a transformer under name, normalizing its traits. Re-
// registering the same name replaces the previous spec.
func (r *Registry) Register(spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exts := make([]string, len(spec.Extensions))
	for i, e := range spec.Extensions {
		exts[i] = strings.ToLower(strings.TrimPrefix(e, "."))
	}
	spec.Extensions = exts

	r.specs[spec.Name] = &spec
}

// Get returns the registered spec by name, if any.
func (r *Registry) Get(name string) (*Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// GetForFile resolves the transformer for fe: candidates are the union of
// extension-matched and mime-matched specs, ties broken by descending
// priority; falls back to the default transformer; fails with
// NoTransformerFound if neither resolves.
func (r *Registry) GetForFile(fe *pipeline.FileEntry, mimeType string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fe.Path), "."))

	var candidates []*Spec
	for _, s := range r.specs {
		for _, e := range s.Extensions {
			if e == ext {
				candidates = append(candidates, s)
				break
			}
		}
		for _, m := range s.MimeTypes {
			if m == mimeType {
				candidates = append(candidates, s)
				break
			}
		}
	}

	if len(candidates) > 0 {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Priority > candidates[j].Priority
		})
		return candidates[0], nil
	}

	for _, s := range r.specs {
		if s.Default {
			return s, nil
		}
	}

	return nil, pipeline.NewTransformNotFoundError("transform", fe.Path)
}

// ValidateDependencies performs a topological sort over every registered
// transformer's Dependencies, failing with CircularDependency (citing the
// cycle) or MissingDependency for a referenced transformer name that is not
// registered. Dependencies that are not registered transformer names (e.g.
// an external tool like "tesseract") are treated as informational per
// spec.md §4.3 and are not validated here — only names present in
// Traits.Dependencies that also appear as a key elsewhere must resolve;
// names that never appear as another spec's registered name are skipped.
func (r *Registry) ValidateDependencies() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(r.specs))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			cycle := append(append([]string{}, path...), name)
			return pipeline.NewCircularDependencyError("transform-registry", cycle)
		}
		color[name] = gray
		path = append(path, name)

		spec, ok := r.specs[name]
		if ok {
			for _, dep := range spec.Traits.Dependencies {
				if _, registered := r.specs[dep]; !registered {
					// External resource (e.g. "tesseract"): informational only.
					continue
				}
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// MissingDependency reports whether any registered transformer declares a
// dependency that names a *registered* transformer that is itself missing a
// further dependency — this helper exists mainly so callers that want a hard
// MissingDependency (as opposed to the permissive external-resource
// treatment above) can opt in by passing the set of names that must resolve
// as transformers.
func (r *Registry) MissingDependency(mustResolve map[string]bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, spec := range r.specs {
		for _, dep := range spec.Traits.Dependencies {
			if mustResolve[dep] {
				if _, ok := r.specs[dep]; !ok {
					return pipeline.NewMissingDependencyError("transform-registry", name, dep)
				}
			}
		}
	}
	return nil
}

// Names returns every registered transformer name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.specs))
	for n := range r.specs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

