package ignore

import (
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultPatterns are the built-in ignore patterns copytree always applies
// unless a profile or flag explicitly overrides them. Grounded on the
// teacher's DefaultIgnorePatterns (internal/discovery/defaults.go).
var DefaultPatterns = []string{
	".git/",
	"node_modules/",
	"dist/",
	"build/",
	"coverage/",
	"__pycache__/",
	".next/",
	"target/",
	"vendor/",
	".copytree/",

	".env",
	".env.*",

	"*.pem",
	"*.key",
	"*.p12",
	"*.pfx",

	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Gemfile.lock",
	"Cargo.lock",
	"go.sum",
	"poetry.lock",

	"*.pyc",
	"*.pyo",
	"*.class",
	"*.o",
	"*.obj",
	"*.exe",
	"*.dll",
	"*.so",
	"*.dylib",

	".DS_Store",
	"Thumbs.db",
	".idea/",
	".vscode/",
	"*.swp",
	"*.swo",
}

// DefaultMatcher compiles DefaultPatterns using the same gitignore pattern
// engine as NestedMatcher.
type DefaultMatcher struct {
	matcher *gitignore.GitIgnore
}

// NewDefaultMatcher compiles the built-in pattern list. Never errors: the
// patterns are compile-time constants, always valid.
func NewDefaultMatcher() *DefaultMatcher {
	return &DefaultMatcher{matcher: gitignore.CompileIgnoreLines(DefaultPatterns...)}
}

func (d *DefaultMatcher) IsIgnored(path string, isDir bool) bool {
	normalized := normalize(path)
	if normalized == "" {
		return false
	}
	matchPath := normalized
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}
	return d.matcher.MatchesPath(matchPath)
}

var _ Matcher = (*DefaultMatcher)(nil)
