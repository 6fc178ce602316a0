package transform

import (
	"github.com/copytree/copytree/internal/llm"
	"github.com/copytree/copytree/internal/registry"
)

// RegisterDefaults populates reg with every built-in transformer and its
// traits. provider backs the two LLM-backed transformers; passing
// llm.NoopProvider{} is valid (they simply fail if invoked).
func RegisterDefaults(reg *registry.Registry, provider llm.Provider) {
	reg.Register(registry.Spec{
		Name:     "default",
		Instance: DefaultLoader{},
		Default:  true,
		Traits:   registry.DefaultTraits(),
	})

	reg.Register(registry.Spec{
		Name:       "markdown-strip",
		Instance:   MarkdownStrip{},
		Extensions: []string{"md", "markdown"},
		Priority:   10,
		Traits:     registry.DefaultTraits(),
	})

	reg.Register(registry.Spec{
		Name:       "csv-preview",
		Instance:   CSVPreview{PreviewRows: DefaultCSVPreviewRows},
		Extensions: []string{"csv"},
		Priority:   10,
		Traits:     registry.DefaultTraits(),
	})

	heavyTraits := registry.DefaultTraits()
	heavyTraits.Heavy = true
	heavyTraits.Requirements = []registry.Requirement{registry.RequiresAPIKey, registry.RequiresNetwork}

	reg.Register(registry.Spec{
		Name:     "code-summary",
		Instance: CodeSummary{Provider: provider},
		Extensions: []string{
			"go", "py", "js", "ts", "jsx", "tsx", "java", "rb", "rs", "c", "cc", "cpp", "h", "hpp",
		},
		Priority: 1, // lowest priority among code-aware transformers: opt-in via explicit binding
		Traits:   heavyTraits,
	})

	reg.Register(registry.Spec{
		Name:       "image-description",
		Instance:   ImageDescription{Provider: provider},
		Extensions: []string{"png", "jpg", "jpeg", "gif", "bmp", "webp"},
		Priority:   10,
		Traits:     heavyTraits,
	})
}
