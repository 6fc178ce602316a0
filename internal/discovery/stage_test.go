package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copytree/copytree/internal/pipeline"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newRunContext(dir string) *pipeline.RunContext {
	opts := &pipeline.Options{Dir: dir}
	rc := pipeline.NewRunContext(context.Background(), opts, &pipeline.Profile{})
	return rc
}

func TestFileDiscoveryStage_WalksAndAppliesDefaultIgnores(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "main.go"), "package main")
	writeTestFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "module.exports = {}")
	writeTestFile(t, filepath.Join(root, ".env"), "SECRET=1")

	stage := NewFileDiscoveryStage()
	rc := newRunContext(root)
	ws, err := stage.Process(rc, nil)
	require.NoError(t, err)

	var paths []string
	for _, fe := range ws.Files {
		paths = append(paths, fe.Path)
	}
	assert.Contains(t, paths, "main.go")
	assert.NotContains(t, paths, "node_modules/pkg/index.js")
	assert.NotContains(t, paths, ".env")
}

func TestFileDiscoveryStage_AlwaysIncludeOverridesIgnore(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, ".env"), "SECRET=1")

	stage := NewFileDiscoveryStage()
	rc := newRunContext(root)
	rc.Profile.AlwaysInclude = []string{".env"}

	ws, err := stage.Process(rc, nil)
	require.NoError(t, err)

	var found bool
	for _, fe := range ws.Files {
		if fe.Path == ".env" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestFileDiscoveryStage_NestedGitignoreNegationReincludes(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, ".gitignore"), "*.log\n")
	writeTestFile(t, filepath.Join(root, "logs", ".gitignore"), "!keep.log\n")
	writeTestFile(t, filepath.Join(root, "logs", "keep.log"), "kept")
	writeTestFile(t, filepath.Join(root, "logs", "drop.log"), "dropped")

	stage := NewFileDiscoveryStage()
	rc := newRunContext(root)
	ws, err := stage.Process(rc, nil)
	require.NoError(t, err)

	var paths []string
	for _, fe := range ws.Files {
		paths = append(paths, fe.Path)
	}
	assert.Contains(t, paths, "logs/keep.log")
	assert.NotContains(t, paths, "logs/drop.log")
}

func TestFileDiscoveryStage_MaxDepthLimitsTraversal(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a", "b", "deep.go"), "package b")
	writeTestFile(t, filepath.Join(root, "shallow.go"), "package root")

	stage := NewFileDiscoveryStage()
	rc := newRunContext(root)
	rc.Options.MaxDepth = 1

	ws, err := stage.Process(rc, nil)
	require.NoError(t, err)

	var paths []string
	for _, fe := range ws.Files {
		paths = append(paths, fe.Path)
	}
	assert.Contains(t, paths, "shallow.go")
	assert.NotContains(t, paths, "a/b/deep.go")
}
