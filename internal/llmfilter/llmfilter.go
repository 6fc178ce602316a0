// Package llmfilter implements the optional LLM-assisted file filter
// (spec.md §4.10): given a natural-language description, it asks an LLM
// which candidate files to keep and drops the rest.
package llmfilter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/copytree/copytree/internal/llm"
	"github.com/copytree/copytree/internal/pipeline"
	"github.com/copytree/copytree/internal/tokenizer"
)

// DefaultChunkTokenBudget bounds how many candidate-list tokens go into a
// single model call, leaving headroom for the prompt preamble and response.
const DefaultChunkTokenBudget = 3000

// candidateEntry is the per-file line of context sent to the model: path,
// size, and an optional one-line summary (reserved for future wiring from
// the code-summary transformer; empty for now since Transform runs after
// this stage in the canonical order).
type candidateEntry struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	Summary string `json:"summary,omitempty"`
}

// Stage filters a WorkingSet down to files the model selects as relevant to
// rc.Options.AIFilterDesc. Skipped entirely when AIFilterDesc is empty or
// rc.Options.DryRun is set. Fails with pipeline.NewLLMFilterError when the
// model's response cannot be parsed, or pipeline.NewLLMProviderError when
// the call itself fails; the driver's continueOnError handling (spec.md
// §4.18) then decides whether to pass the input through unchanged.
type Stage struct {
	pipeline.BaseStage
	Provider         llm.Provider
	Tokenizer        tokenizer.Tokenizer
	ChunkTokenBudget int
}

// NewStage constructs an LLM filter stage. tok may be nil, in which case the
// default cl100k_base tokenizer is used for chunk sizing.
func NewStage(provider llm.Provider, tok tokenizer.Tokenizer) *Stage {
	if tok == nil {
		tok, _ = tokenizer.NewTokenizer("")
	}
	return &Stage{
		BaseStage:        pipeline.BaseStage{StageName: "llm-filter"},
		Provider:         provider,
		Tokenizer:        tok,
		ChunkTokenBudget: DefaultChunkTokenBudget,
	}
}

func (s *Stage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	if rc.Options.DryRun || rc.Options.AIFilterDesc == "" {
		return in, nil
	}

	chunks := s.chunk(in.Files)
	kept := make(map[string]bool, len(in.Files))

	for _, chunk := range chunks {
		paths, err := s.queryChunk(rc.Context, rc.Options.AIFilterDesc, chunk)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			kept[p] = true
		}
	}

	out := pipeline.NewWorkingSet()
	out.TotalFound = in.TotalFound
	out.SkipReasons = in.SkipReasons
	for _, fe := range in.Files {
		if kept[fe.Path] {
			out.Files = append(out.Files, fe)
		} else {
			out.RecordSkip("llm_filter_excluded")
		}
	}
	return out, nil
}

// chunk splits files into token-budget-respecting batches, each rendered as
// the candidate list the model sees.
func (s *Stage) chunk(files []*pipeline.FileEntry) [][]*pipeline.FileEntry {
	if len(files) == 0 {
		return nil
	}

	budget := s.ChunkTokenBudget
	if budget <= 0 {
		budget = DefaultChunkTokenBudget
	}

	var chunks [][]*pipeline.FileEntry
	var cur []*pipeline.FileEntry
	used := 0

	for _, fe := range files {
		lineTokens := s.Tokenizer.Count(fe.Path) + 4
		if used+lineTokens > budget && len(cur) > 0 {
			chunks = append(chunks, cur)
			cur = nil
			used = 0
		}
		cur = append(cur, fe)
		used += lineTokens
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

func (s *Stage) queryChunk(ctx context.Context, desc string, chunk []*pipeline.FileEntry) ([]string, error) {
	candidates := make([]candidateEntry, len(chunk))
	for i, fe := range chunk {
		candidates[i] = candidateEntry{Path: fe.Path, Size: fe.Size}
	}

	payload, err := json.Marshal(candidates)
	if err != nil {
		return nil, pipeline.NewLLMFilterError("llm-filter", "encoding candidate list", err)
	}

	prompt := fmt.Sprintf(
		"Given this task description:\n\n%s\n\nAnd this candidate list of files (JSON array of {path, size}):\n\n%s\n\n"+
			"Respond with ONLY a JSON array of the path strings to keep. Do not include any other text.",
		desc, string(payload),
	)

	resp, err := s.Provider.Text(ctx, prompt, llm.Options{MaxTokens: 2048})
	if err != nil {
		return nil, pipeline.NewLLMProviderError("llm-filter", "calling LLM provider", err)
	}

	paths, err := parseResponse(resp)
	if err != nil {
		return nil, pipeline.NewLLMFilterError("llm-filter", "unparseable model response", err)
	}
	return paths, nil
}

// parseResponse extracts a JSON array of path strings from the model's
// reply, tolerating a leading/trailing code fence or prose the model added
// despite instructions.
func parseResponse(resp string) ([]string, error) {
	text := strings.TrimSpace(resp)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	text = text[start : end+1]

	var paths []string
	if err := json.Unmarshal([]byte(text), &paths); err != nil {
		return nil, fmt.Errorf("decoding path array: %w", err)
	}
	return paths, nil
}
