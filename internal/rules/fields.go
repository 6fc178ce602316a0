// Package rules implements the rule evaluator of spec.md §4.1: it evaluates
// single predicates and rule sets over file metadata, generalized from the
// teacher's narrower PatternFilter (include/exclude globs and extensions,
// internal/discovery/filter.go) into the full field/operator grammar.
package rules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/copytree/copytree/internal/pipeline"
)

// Field names accepted in a Rule's Field slot.
const (
	FieldRelativeFolder = "relativeFolder"
	FieldFullPath       = "fullRelativePath"
	FieldDirName        = "directoryName"
	FieldBaseName       = "baseName"
	FieldFileName       = "fileName"
	FieldExtension      = "extension"
	FieldContents       = "contents"
	FieldContentsSlice  = "contentsSlice"
	FieldSize           = "size"
	FieldModTime        = "modificationTime"
	FieldMimeType       = "mimeType"
)

// contentSliceBytes is the length of the "first N bytes" content slice field.
const contentSliceBytes = 256

// fieldReader resolves a Rule's field value from a FileEntry. Content-bearing
// fields read lazily from disk and return an error (never a silent false)
// when the file cannot be read, per spec.md §4.1.
func fieldReader(fe *pipeline.FileEntry, field string) (any, error) {
	switch field {
	case FieldRelativeFolder:
		dir := filepath.ToSlash(filepath.Dir(fe.Path))
		if dir == "." {
			dir = ""
		}
		return dir, nil
	case FieldFullPath:
		return fe.Path, nil
	case FieldDirName:
		return filepath.Base(filepath.Dir(fe.Path)), nil
	case FieldBaseName:
		name := filepath.Base(fe.Path)
		return strings.TrimSuffix(name, filepath.Ext(name)), nil
	case FieldFileName:
		return filepath.Base(fe.Path), nil
	case FieldExtension:
		return strings.TrimPrefix(filepath.Ext(fe.Path), "."), nil
	case FieldSize:
		return fe.Size, nil
	case FieldModTime:
		return fe.ModTime, nil
	case FieldMimeType:
		return mimeTypeFor(fe), nil
	case FieldContents:
		return readContent(fe)
	case FieldContentsSlice:
		content, err := readContent(fe)
		if err != nil {
			return nil, err
		}
		if len(content) > contentSliceBytes {
			return content[:contentSliceBytes], nil
		}
		return content, nil
	default:
		return nil, &UnknownFieldError{Field: field}
	}
}

// readContent returns fe.Content if it has already been loaded by the
// FileLoad stage, otherwise reads fe.AbsPath directly. This lets the
// RulesetFilter stage (which runs before FileLoad) still evaluate
// content-bearing rules when needed, at the cost of reading the file twice.
func readContent(fe *pipeline.FileEntry) (string, error) {
	if fe.Content != "" {
		return fe.Content, nil
	}
	if fe.AbsPath == "" {
		return "", &FieldReadError{Path: fe.Path}
	}
	data, err := os.ReadFile(fe.AbsPath)
	if err != nil {
		return "", &FieldReadError{Path: fe.Path, Cause: err}
	}
	return string(data), nil
}

func mimeTypeFor(fe *pipeline.FileEntry) string {
	ext := strings.ToLower(filepath.Ext(fe.Path))
	if mt, ok := extMimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

var extMimeTypes = map[string]string{
	".go":   "text/x-go",
	".js":   "application/javascript",
	".ts":   "application/typescript",
	".py":   "text/x-python",
	".json": "application/json",
	".md":   "text/markdown",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
	".txt":  "text/plain",
	".html": "text/html",
	".css":  "text/css",
	".xml":  "application/xml",
	".csv":  "text/csv",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

// UnknownFieldError reports a Rule.Field that fieldReader does not recognize.
type UnknownFieldError struct{ Field string }

func (e *UnknownFieldError) Error() string { return "unknown rule field: " + e.Field }

// FieldReadError reports that a content-bearing field could not be read.
type FieldReadError struct {
	Path  string
	Cause error
}

func (e *FieldReadError) Error() string {
	if e.Cause != nil {
		return "reading content for " + e.Path + ": " + e.Cause.Error()
	}
	return "cannot read content for " + e.Path
}

func (e *FieldReadError) Unwrap() error { return e.Cause }
