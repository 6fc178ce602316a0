package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNestedMatcher_NegationReincludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n")
	writeFile(t, filepath.Join(root, "logs", ".gitignore"), "!keep.log\n")

	m, err := NewNestedMatcher(root, ".gitignore")
	require.NoError(t, err)

	require.True(t, m.IsIgnored("logs/other.log", false))
	require.False(t, m.IsIgnored("logs/keep.log", false))
}

func TestNestedMatcher_DirectoryOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n")

	m, err := NewNestedMatcher(root, ".gitignore")
	require.NoError(t, err)

	require.True(t, m.IsIgnored("build", true))
	require.False(t, m.IsIgnored("build.go", false))
}

func TestDefaultMatcher_MatchesBuiltins(t *testing.T) {
	m := NewDefaultMatcher()
	require.True(t, m.IsIgnored("node_modules", true))
	require.True(t, m.IsIgnored(".env", false))
	require.False(t, m.IsIgnored("main.go", false))
}

func TestComposite_MatchesIfAnySourceMatches(t *testing.T) {
	c := NewComposite(NewDefaultMatcher(), nil)
	require.True(t, c.IsIgnored("go.sum", false))
	require.False(t, c.IsIgnored("main.go", false))
}
