package format

import (
	"encoding/json"
	"io"

	"github.com/copytree/copytree/internal/pipeline"
)

// NDJSONFormatter emits one JSON object per line: a metadata record, one
// file record per entry, and a final summary record, per spec.md §4.16.
// Streaming-capable: each record is marshaled and written independently, so
// a caller wrapping w in a flushing writer sees records as they are
// produced rather than buffered as one document. Grounded on stdlib
// encoding/json — no NDJSON-specific library appears in the corpus.
type NDJSONFormatter struct{}

type ndjsonMetadataRecord struct {
	Record      string         `json:"record"`
	GeneratedAt string         `json:"generated_at"`
	BasePath    string         `json:"base_path"`
	Profile     string         `json:"profile,omitempty"`
	GitRef      string         `json:"git_ref,omitempty"`
	FileCount   int            `json:"file_count"`
	TotalSize   int64          `json:"total_size"`
	TotalFound  int            `json:"total_found"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
}

type ndjsonFileRecord struct {
	Record         string `json:"record"`
	Path           string `json:"path"`
	Size           int64  `json:"size"`
	Modified       string `json:"modified"`
	Binary         bool   `json:"binary"`
	Encoding       string `json:"encoding,omitempty"`
	BinaryCategory string `json:"binary_category,omitempty"`
	GitStatus      string `json:"git_status,omitempty"`
	Truncated      bool   `json:"truncated,omitempty"`
	Content        string `json:"content,omitempty"`
}

type ndjsonSummaryRecord struct {
	Record      string `json:"record"`
	FileCount   int    `json:"file_count"`
	TotalSize   int64  `json:"total_size"`
	TotalTokens int    `json:"total_tokens,omitempty"`
}

func (NDJSONFormatter) Format(w io.Writer, meta Metadata, files []*pipeline.FileEntry) error {
	enc := json.NewEncoder(w)

	if err := enc.Encode(ndjsonMetadataRecord{
		Record:      "metadata",
		GeneratedAt: meta.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		BasePath:    meta.BasePath,
		Profile:     meta.ProfileName,
		GitRef:      meta.GitRef,
		FileCount:   len(files),
		TotalSize:   totalSize(files),
		TotalFound:  meta.TotalFound,
		SkipReasons: meta.SkipReasons,
	}); err != nil {
		return err
	}

	if !meta.OnlyTree {
		for _, fe := range files {
			rec := ndjsonFileRecord{
				Record:         "file",
				Path:           fe.Path,
				Size:           fe.Size,
				Modified:       fe.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
				Binary:         fe.IsBinary,
				Encoding:       fe.Encoding,
				BinaryCategory: string(fe.BinaryCategory),
				GitStatus:      string(fe.GitStatus),
				Truncated:      fe.Truncated,
				Content:        renderContent(fe, meta.AddLineNumbers),
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
	}

	var totalTokens int
	for _, fe := range files {
		totalTokens += fe.TokenCount
	}

	return enc.Encode(ndjsonSummaryRecord{
		Record:      "summary",
		FileCount:   len(files),
		TotalSize:   totalSize(files),
		TotalTokens: totalTokens,
	})
}
