package deliver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copytree/copytree/internal/pipeline"
)

func newRunContext(t *testing.T, opts *pipeline.Options) *pipeline.RunContext {
	t.Helper()
	if opts.CacheDir == "" {
		opts.CacheDir = t.TempDir()
	}
	return pipeline.NewRunContext(context.Background(), opts, nil)
}

func TestResolveTarget_PrecedenceOrder(t *testing.T) {
	assert.Equal(t, TargetReference, ResolveTarget(&pipeline.Options{AsReference: true, Output: "x", Display: true}))
	assert.Equal(t, TargetFile, ResolveTarget(&pipeline.Options{Output: "x", Display: true}))
	assert.Equal(t, TargetStdout, ResolveTarget(&pipeline.Options{Display: true}))
	assert.Equal(t, TargetClipboard, ResolveTarget(&pipeline.Options{}))
}

func TestDeliver_Stdout(t *testing.T) {
	rc := newRunContext(t, &pipeline.Options{Display: true})
	var out bytes.Buffer

	res, err := Deliver(rc, "hello world", &out)
	require.NoError(t, err)
	assert.Equal(t, TargetStdout, res.Target)
	assert.Equal(t, "hello world", out.String())
}

func TestDeliver_File_WritesContentAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xml")
	rc := newRunContext(t, &pipeline.Options{Output: path})
	var out bytes.Buffer

	res, err := Deliver(rc, "<directory/>", &out)
	require.NoError(t, err)
	assert.Equal(t, TargetFile, res.Target)
	assert.Equal(t, path, res.Path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<directory/>", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file")
}

func TestDeliver_File_CreatesOutputsDirectory(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "nested", "deep", "out.md")
	rc := newRunContext(t, &pipeline.Options{Output: path})
	var out bytes.Buffer

	_, err := Deliver(rc, "content", &out)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestDeliver_Reference_WritesFileAndPrintsNotice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xml")
	rc := newRunContext(t, &pipeline.Options{AsReference: true, Output: path})
	var out bytes.Buffer

	res, err := Deliver(rc, "body", &out)
	require.NoError(t, err)
	assert.Equal(t, TargetReference, res.Target)
	assert.Equal(t, path, res.Path)
	assert.Contains(t, out.String(), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "body", string(got))
}

func TestDeliver_Reference_DefaultsPathUnderCacheDir(t *testing.T) {
	cacheDir := t.TempDir()
	rc := newRunContext(t, &pipeline.Options{AsReference: true, CacheDir: cacheDir})
	var out bytes.Buffer

	res, err := Deliver(rc, "body", &out)
	require.NoError(t, err)
	assert.Equal(t, cacheDir, filepath.Dir(res.Path))
}

func TestDeliver_Clipboard_Success(t *testing.T) {
	restore := stubClipboard(func(string) error { return nil })
	defer restore()

	rc := newRunContext(t, &pipeline.Options{})
	var out bytes.Buffer

	res, err := Deliver(rc, "clip me", &out)
	require.NoError(t, err)
	assert.Equal(t, TargetClipboard, res.Target)
	assert.False(t, res.ClipboardFailed)
	assert.Empty(t, out.String())
}

func TestDeliver_Clipboard_UnavailableFallsBackToFileAndSucceeds(t *testing.T) {
	restore := stubClipboard(func(string) error { return errors.New("no clipboard utilities available") })
	defer restore()

	cacheDir := t.TempDir()
	rc := newRunContext(t, &pipeline.Options{CacheDir: cacheDir})
	var out bytes.Buffer

	res, err := Deliver(rc, "clip me", &out)
	require.NoError(t, err, "fallback counts as success, not failure")
	assert.Equal(t, TargetClipboard, res.Target)
	assert.True(t, res.ClipboardFailed)
	require.NotEmpty(t, res.Path)
	assert.Contains(t, out.String(), res.Path)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "clip me", string(got))
}

func stubClipboard(fn func(string) error) func() {
	prev := clipboardWriteAll
	clipboardWriteAll = fn
	return func() { clipboardWriteAll = prev }
}
