// Package ignore implements the ignore matcher of spec.md §4.2: it compiles
// and matches version-control-style ignore patterns, honoring nested ignore
// files, negations, directory-only rules, "**" wildcards, and brace
// expansion (all handled by the underlying sabhiram/go-gitignore compiler,
// the same library the teacher uses).
//
// Generalized from the teacher's two near-identical matcher types
// (internal/discovery/gitignore.go and internal/discovery/copytreeignore.go,
// which differed only in the ignore filename they searched for) into a
// single parametrized NestedMatcher.
package ignore

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Matcher is the interface every ignore source implements: does this path
// (a file or directory, relative to the run's base directory) match?
type Matcher interface {
	IsIgnored(path string, isDir bool) bool
}

// NestedMatcher loads and evaluates ignore-file patterns hierarchically: it
// discovers every file named FileName under root and compiles its patterns,
// scoped to the directory that contains it. A path is ignored if any
// applicable ignore file's compiled matcher matches it; patterns in a more
// deeply nested file take effect in addition to (not instead of) ancestor
// files, and negation patterns within a single file's own rules can
// re-include a path.
type NestedMatcher struct {
	root     string
	fileName string
	matchers map[string]*gitignore.GitIgnore
	dirs     []string // sorted directory keys, for deterministic evaluation
	logger   *slog.Logger
}

// NewNestedMatcher walks rootDir discovering every file named fileName
// (e.g. ".gitignore" or ".ctreeignore") and compiles its patterns. Missing
// or unreadable ignore files at individual directory levels are logged and
// skipped, not treated as a fatal error.
func NewNestedMatcher(rootDir, fileName string) (*NestedMatcher, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving root path %s: %w", rootDir, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root path %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory", absRoot)
	}

	m := &NestedMatcher{
		root:     absRoot,
		fileName: fileName,
		matchers: make(map[string]*gitignore.GitIgnore),
		logger:   slog.Default().With("component", "ignore", "file", fileName),
	}
	if err := m.discover(); err != nil {
		return nil, fmt.Errorf("discovering %s files in %s: %w", fileName, absRoot, err)
	}
	return m, nil
}

func (m *NestedMatcher) discover() error {
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.logger.Debug("skipping unreadable path", "path", path, "error", err)
			return filepath.SkipDir
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != m.fileName {
			return nil
		}

		dirPath := filepath.Dir(path)
		relDir, err := filepath.Rel(m.root, dirPath)
		if err != nil {
			return nil
		}
		compiled, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			m.logger.Debug("skipping unreadable ignore file", "path", path, "error", err)
			return nil
		}
		if relDir == "" {
			relDir = "."
		}
		m.matchers[relDir] = compiled
		return nil
	})
	if err != nil {
		return err
	}

	m.dirs = make([]string, 0, len(m.matchers))
	for dir := range m.matchers {
		m.dirs = append(m.dirs, dir)
	}
	sort.Strings(m.dirs)
	return nil
}

// IsIgnored reports whether path should be ignored according to the loaded
// rules, walking from the root ignore file toward path's parent directory so
// that a more specific (nested) file's negation can re-include a path an
// ancestor excluded. The path must be relative to root.
func (m *NestedMatcher) IsIgnored(path string, isDir bool) bool {
	normalized := normalize(path)
	if normalized == "" {
		return false
	}
	matchPath := normalized
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}

	for _, dir := range m.dirs {
		if dir != "." {
			prefix := dir + "/"
			if !strings.HasPrefix(normalized, prefix) {
				continue
			}
		}
		var relPath string
		if dir == "." {
			relPath = matchPath
		} else {
			relPath = strings.TrimPrefix(matchPath, dir+"/")
		}
		if m.matchers[dir].MatchesPath(relPath) {
			return true
		}
	}
	return false
}

// PatternCount returns the number of ignore files loaded.
func (m *NestedMatcher) PatternCount() int { return len(m.matchers) }

func normalize(path string) string {
	p := filepath.ToSlash(path)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}

var _ Matcher = (*NestedMatcher)(nil)
