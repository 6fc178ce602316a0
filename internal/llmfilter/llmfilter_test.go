package llmfilter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copytree/copytree/internal/llm"
	"github.com/copytree/copytree/internal/pipeline"
)

type stubProvider struct {
	response string
	err      error
	calls    int
}

func (p *stubProvider) Text(context.Context, string, llm.Options) (string, error) {
	p.calls++
	return p.response, p.err
}

func newWorkingSet(paths ...string) *pipeline.WorkingSet {
	ws := pipeline.NewWorkingSet()
	for _, p := range paths {
		ws.Files = append(ws.Files, &pipeline.FileEntry{Path: p})
	}
	return ws
}

func TestStage_PassthroughWhenDescriptionEmpty(t *testing.T) {
	provider := &stubProvider{}
	stage := NewStage(provider, nil)
	rc := pipeline.NewRunContext(context.Background(), &pipeline.Options{}, &pipeline.Profile{})

	in := newWorkingSet("a.go", "b.go")
	out, err := stage.Process(rc, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Zero(t, provider.calls)
}

func TestStage_PassthroughInDryRun(t *testing.T) {
	provider := &stubProvider{}
	stage := NewStage(provider, nil)
	rc := pipeline.NewRunContext(context.Background(), &pipeline.Options{AIFilterDesc: "keep go files", DryRun: true}, &pipeline.Profile{})

	in := newWorkingSet("a.go", "b.txt")
	out, err := stage.Process(rc, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Zero(t, provider.calls)
}

func TestStage_KeepsOnlySelectedPaths(t *testing.T) {
	provider := &stubProvider{response: `["a.go"]`}
	stage := NewStage(provider, nil)
	rc := pipeline.NewRunContext(context.Background(), &pipeline.Options{AIFilterDesc: "keep go files"}, &pipeline.Profile{})

	in := newWorkingSet("a.go", "b.txt")
	out, err := stage.Process(rc, in)
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	assert.Equal(t, "a.go", out.Files[0].Path)
	assert.Equal(t, 1, out.SkipReasons["llm_filter_excluded"])
}

func TestStage_TolerantOfCodeFenceAndProse(t *testing.T) {
	provider := &stubProvider{response: "Sure, here you go:\n```json\n[\"a.go\", \"b.txt\"]\n```\nLet me know if you need anything else."}
	stage := NewStage(provider, nil)
	rc := pipeline.NewRunContext(context.Background(), &pipeline.Options{AIFilterDesc: "keep everything"}, &pipeline.Profile{})

	in := newWorkingSet("a.go", "b.txt")
	out, err := stage.Process(rc, in)
	require.NoError(t, err)
	assert.Len(t, out.Files, 2)
}

func TestStage_UnparseableResponseFailsWithLLMFilterError(t *testing.T) {
	provider := &stubProvider{response: "not json at all"}
	stage := NewStage(provider, nil)
	rc := pipeline.NewRunContext(context.Background(), &pipeline.Options{AIFilterDesc: "keep go files"}, &pipeline.Profile{})

	in := newWorkingSet("a.go")
	_, err := stage.Process(rc, in)
	require.Error(t, err)
	var perr *pipeline.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "LLMFilterError", perr.Kind)
}

func TestStage_ChunksLargeCandidateListsByTokenBudget(t *testing.T) {
	provider := &stubProvider{response: `[]`}
	stage := NewStage(provider, nil)
	stage.ChunkTokenBudget = 10

	files := make([]*pipeline.FileEntry, 50)
	for i := range files {
		files[i] = &pipeline.FileEntry{Path: "file.go"}
	}
	chunks := stage.chunk(files)
	assert.Greater(t, len(chunks), 1)

	var total int
	for _, c := range chunks {
		total += len(c)
	}
	assert.Equal(t, 50, total)
}
