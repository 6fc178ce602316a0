package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copytree/copytree/internal/pipeline"
)

func sampleFiles() []*pipeline.FileEntry {
	return []*pipeline.FileEntry{
		{Path: "a.go", Size: 12, Content: "package a\n", ModTime: time.Unix(0, 0)},
		{Path: "b.txt", Size: 5, Content: "hello", ModTime: time.Unix(0, 0), GitStatus: pipeline.GitModified},
	}
}

func TestGet_ResolvesEveryKnownFormat(t *testing.T) {
	for _, of := range []pipeline.OutputFormat{pipeline.FormatXML, pipeline.FormatMarkdown, pipeline.FormatNDJSON, pipeline.FormatSARIF, ""} {
		f, err := Get(of)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}
}

func TestGet_UnknownFormatErrors(t *testing.T) {
	_, err := Get(pipeline.OutputFormat("bogus"))
	require.Error(t, err)
}

func TestXMLFormatter_EmitsFilesAndMetadata(t *testing.T) {
	meta := NewMetadata(time.Unix(100, 0), &pipeline.Options{Dir: "myproj"}, &pipeline.Profile{Name: "default"}, pipeline.NewWorkingSet())
	var buf bytes.Buffer
	require.NoError(t, XMLFormatter{}.Format(&buf, meta, sampleFiles()))

	out := buf.String()
	assert.Contains(t, out, "<directory")
	assert.Contains(t, out, `path="a.go"`)
	assert.Contains(t, out, `path="b.txt"`)
	assert.Contains(t, out, "<![CDATA[")
}

func TestXMLFormatter_OnlyTreeOmitsFiles(t *testing.T) {
	meta := NewMetadata(time.Unix(0, 0), &pipeline.Options{Dir: "x", OnlyTree: true}, nil, nil)
	var buf bytes.Buffer
	require.NoError(t, XMLFormatter{}.Format(&buf, meta, sampleFiles()))
	assert.NotContains(t, buf.String(), `path="a.go"`)
}

func TestMarkdownFormatter_IncludesFrontMatterTreeAndFences(t *testing.T) {
	meta := NewMetadata(time.Unix(0, 0), &pipeline.Options{Dir: "myproj"}, &pipeline.Profile{Name: "default"}, pipeline.NewWorkingSet())
	var buf bytes.Buffer
	require.NoError(t, MarkdownFormatter{}.Format(&buf, meta, sampleFiles()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Contains(t, out, "## File Tree")
	assert.Contains(t, out, "### a.go")
	assert.Contains(t, out, "```go")
	assert.Contains(t, out, "package a")
}

func TestMarkdownFormatter_FenceAvoidsBacktickCollision(t *testing.T) {
	content := "some ```code``` inline"
	fence := fenceFor(content)
	assert.True(t, len(fence) > 3)
	assert.False(t, strings.Contains(content, fence))
}

func TestNDJSONFormatter_EmitsMetadataFileAndSummaryLines(t *testing.T) {
	meta := NewMetadata(time.Unix(0, 0), &pipeline.Options{Dir: "myproj"}, &pipeline.Profile{Name: "default"}, pipeline.NewWorkingSet())
	var buf bytes.Buffer
	require.NoError(t, NDJSONFormatter{}.Format(&buf, meta, sampleFiles()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4) // metadata + 2 files + summary

	var meta0 map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta0))
	assert.Equal(t, "metadata", meta0["record"])

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &summary))
	assert.Equal(t, "summary", summary["record"])
	assert.Equal(t, float64(2), summary["file_count"])
}

func TestSARIFFormatter_ProducesAValidSARIFLog(t *testing.T) {
	meta := NewMetadata(time.Unix(0, 0), &pipeline.Options{Dir: "myproj"}, &pipeline.Profile{Name: "default"}, pipeline.NewWorkingSet())
	var buf bytes.Buffer
	require.NoError(t, SARIFFormatter{}.Format(&buf, meta, sampleFiles()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
	runs, ok := doc["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
}
