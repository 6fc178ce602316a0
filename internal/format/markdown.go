package format

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/copytree/copytree/internal/pipeline"
)

// MarkdownFormatter renders a front-matter block, a tree section, an
// optional instructions section, and one section per file per spec.md
// §4.16. Grounded on stdlib text/template-free string building — no
// Markdown-document-builder library appears in the corpus; the teacher's
// only Markdown dependency (blackfriday) is a *parser*, used instead by
// internal/transform.MarkdownStrip for the opposite direction (Markdown to
// plain text), so it has no role rendering Markdown *out*.
type MarkdownFormatter struct{}

var languageByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".jsx":  "jsx",
	".tsx":  "tsx",
	".java": "java",
	".rb":   "ruby",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cc":   "cpp",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".sh":   "bash",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".md":   "markdown",
	".sql":  "sql",
	".html": "html",
	".css":  "css",
}

func languageFor(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return ""
}

// fenceFor returns a backtick fence at least one backtick longer than the
// longest run of backticks already present in content, so the fence cannot
// collide with fenced code blocks inside the file's own content.
func fenceFor(content string) string {
	longest := 2
	run := 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", longest+1)
}

func (MarkdownFormatter) Format(w io.Writer, meta Metadata, files []*pipeline.FileEntry) error {
	var b strings.Builder

	fmt.Fprintf(&b, "---\n")
	fmt.Fprintf(&b, "format: copytree-markdown\n")
	fmt.Fprintf(&b, "tool: copytree\n")
	fmt.Fprintf(&b, "generated: %s\n", meta.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(&b, "base: %s\n", meta.BasePath)
	if meta.ProfileName != "" {
		fmt.Fprintf(&b, "profile: %s\n", meta.ProfileName)
	}
	fmt.Fprintf(&b, "fileCount: %d\n", len(files))
	fmt.Fprintf(&b, "totalSize: %d\n", totalSize(files))
	fmt.Fprintf(&b, "onlyTree: %t\n", meta.OnlyTree)
	fmt.Fprintf(&b, "addLineNumbers: %t\n", meta.AddLineNumbers)
	if meta.GitRef != "" {
		fmt.Fprintf(&b, "gitRef: %s\n", meta.GitRef)
	}
	fmt.Fprintf(&b, "---\n\n")

	fmt.Fprintf(&b, "## File Tree\n\n```\n%s```\n\n", BuildTree(paths(files), meta.BasePath))

	if meta.Instructions != "" {
		fmt.Fprintf(&b, "## Instructions\n\n%s\n\n", meta.Instructions)
	}

	if !meta.OnlyTree {
		for _, fe := range files {
			content := renderContent(fe, meta.AddLineNumbers)
			sum := sha256.Sum256([]byte(fe.Content))

			fmt.Fprintf(&b, "<!-- @%s size=%d modified=%s sha256=%s git=%s binary=%t truncated=%t -->\n",
				fe.Path, fe.Size, fe.ModTime.UTC().Format(time.RFC3339),
				hex.EncodeToString(sum[:]), string(fe.GitStatus), fe.IsBinary, fe.Truncated,
			)
			fmt.Fprintf(&b, "### %s\n\n", fe.Path)

			fence := fenceFor(content)
			lang := languageFor(fe.Path)
			fmt.Fprintf(&b, "%s%s\n%s\n%s\n\n", fence, lang, content, fence)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
