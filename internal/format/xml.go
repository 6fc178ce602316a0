package format

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/copytree/copytree/internal/pipeline"
)

// XMLFormatter renders a namespaced <directory> document per spec.md §4.16.
// Grounded on stdlib encoding/xml — no XML-builder library appears anywhere
// in the corpus, so the struct-tag-driven marshaler is the stdlib-justified
// choice.
type XMLFormatter struct{}

type xmlDocument struct {
	XMLName      xml.Name    `xml:"directory"`
	Path         string      `xml:"path,attr"`
	Metadata     xmlMetadata `xml:"metadata"`
	Instructions *xmlCDATA   `xml:"instructions,omitempty"`
	Files        []xmlFile   `xml:"file"`
}

type xmlMetadata struct {
	GeneratedAt string   `xml:"generatedAt"`
	FileCount   int      `xml:"fileCount"`
	TotalSize   int64    `xml:"totalSize"`
	Profile     string   `xml:"profile,omitempty"`
	Git         *xmlGit  `xml:"git,omitempty"`
	Tree        xmlCDATA `xml:"tree"`
}

type xmlGit struct {
	Ref string `xml:"ref"`
}

type xmlFile struct {
	Path           string `xml:"path,attr"`
	Size           int64  `xml:"size,attr"`
	Modified       string `xml:"modified,attr"`
	Binary         bool   `xml:"binary,attr"`
	Encoding       string `xml:"encoding,attr,omitempty"`
	BinaryCategory string `xml:"binaryCategory,attr,omitempty"`
	GitStatus      string   `xml:"gitStatus,attr,omitempty"`
	Content        xmlCDATA `xml:"content"`
}

// xmlCDATA wraps its text in a literal CDATA section via the `innerxml`
// struct tag, so file content survives sequence terminators and raw "<"/"&"
// without per-character escaping. Any embedded "]]>" is split so it cannot
// prematurely terminate the section, and stray control characters are
// stripped per spec.md §4.16.
type xmlCDATA struct {
	Raw string `xml:",innerxml"`
}

func newCDATA(text string) xmlCDATA {
	clean := stripControlChars(text)
	clean = strings.ReplaceAll(clean, "]]>", "]]]]><![CDATA[>")
	return xmlCDATA{Raw: "<![CDATA[" + clean + "]]>"}
}

func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (XMLFormatter) Format(w io.Writer, meta Metadata, files []*pipeline.FileEntry) error {
	doc := xmlDocument{
		Path: meta.BasePath,
		Metadata: xmlMetadata{
			GeneratedAt: meta.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
			FileCount:   len(files),
			TotalSize:   totalSize(files),
			Profile:     meta.ProfileName,
			Tree:        newCDATA(BuildTree(paths(files), meta.BasePath)),
		},
	}
	if meta.GitRef != "" {
		doc.Metadata.Git = &xmlGit{Ref: meta.GitRef}
	}
	if meta.Instructions != "" {
		instructions := newCDATA(meta.Instructions)
		doc.Instructions = &instructions
	}

	if !meta.OnlyTree {
		doc.Files = make([]xmlFile, len(files))
		for i, fe := range files {
			doc.Files[i] = xmlFile{
				Path:           fe.Path,
				Size:           fe.Size,
				Modified:       fe.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
				Binary:         fe.IsBinary,
				Encoding:       fe.Encoding,
				BinaryCategory: string(fe.BinaryCategory),
				GitStatus:      string(fe.GitStatus),
				Content:        newCDATA(renderContent(fe, meta.AddLineNumbers)),
			}
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding XML output: %w", err)
	}
	return nil
}
