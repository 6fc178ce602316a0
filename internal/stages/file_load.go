package stages

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/copytree/copytree/internal/cache"
	"github.com/copytree/copytree/internal/pipeline"
)

// StreamThreshold is the file size above which FileLoadStage reads with a
// buffered streaming reader rather than os.ReadFile, per spec.md §4.12.
const StreamThreshold = 10 * 1024 * 1024

// binarySampleSize is the number of leading bytes sampled for binary
// detection, per spec.md §4.12 ("sample up to 512 bytes").
const binarySampleSize = 512

// lineCountThreshold caps the file size for which a line count is computed.
const lineCountThreshold = 2 * 1024 * 1024

// FileLoadStage reads each entry's content, detects binary payloads, and
// applies the configured binary policy. Loading is bounded by
// rc.Options.MaxConcurrency via an errgroup, following the teacher's
// TokenCounter.CountFiles pattern (tokenizer/counter.go).
type FileLoadStage struct {
	pipeline.BaseStage

	// BinaryPolicy maps a BinaryCategory to the policy applied to it.
	// Categories absent from the map use PolicyPlaceholder.
	BinaryPolicy map[pipeline.BinaryCategory]pipeline.BinaryPolicy
}

func NewFileLoadStage() *FileLoadStage {
	return &FileLoadStage{BaseStage: pipeline.BaseStage{StageName: "file-load"}}
}

func (s *FileLoadStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	concurrency := rc.Options.MaxConcurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(rc.Context)
	g.SetLimit(concurrency)

	for _, fe := range in.Files {
		fe := fe
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			s.loadOne(fe)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, pipeline.NewCancellationError("file-load")
	}

	return in, nil
}

func (s *FileLoadStage) loadOne(fe *pipeline.FileEntry) {
	data, err := readContent(fe.AbsPath, fe.Size)
	if err != nil {
		fe.Error = fmt.Errorf("reading %s: %w", fe.Path, err)
		return
	}

	isBin := detectBinary(data)
	fe.IsBinary = isBin
	fe.ContentHash = cache.HashContent(data)

	if isBin {
		fe.BinaryCategory = categorize(fe.Path)
		policy := s.policyFor(fe.BinaryCategory)
		applyBinaryPolicy(fe, data, policy)
		return
	}

	fe.Encoding = "utf-8"
	fe.Content = string(data)
	if fe.Size <= lineCountThreshold {
		fe.LineCount = bytes.Count(data, []byte("\n")) + 1
	}
}

func (s *FileLoadStage) policyFor(cat pipeline.BinaryCategory) pipeline.BinaryPolicy {
	if s.BinaryPolicy != nil {
		if p, ok := s.BinaryPolicy[cat]; ok {
			return p
		}
	}
	return pipeline.PolicyPlaceholder
}

func applyBinaryPolicy(fe *pipeline.FileEntry, data []byte, policy pipeline.BinaryPolicy) {
	switch policy {
	case pipeline.PolicyBase64:
		fe.Encoding = "base64"
		fe.Content = base64.StdEncoding.EncodeToString(data)
	case pipeline.PolicySkip:
		fe.Excluded = true
		fe.ExcludeReason = "binary_skip"
	case pipeline.PolicyComment:
		fe.Content = fmt.Sprintf("binary file (%s, %d bytes)", fe.BinaryCategory, len(data))
	default: // placeholder
		fe.Content = fmt.Sprintf("[binary file: %s, %d bytes, category=%s]", fe.Path, len(data), fe.BinaryCategory)
	}
}

func readContent(path string, size int64) ([]byte, error) {
	if size <= StreamThreshold {
		return os.ReadFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	buf.Grow(int(size))
	r := bufio.NewReaderSize(f, 1<<20)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectBinary samples up to binarySampleSize leading bytes: any null byte,
// or more than 30% non-printable bytes, marks the content binary.
func detectBinary(data []byte) bool {
	sample := data
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) != -1 {
		return true
	}

	nonPrintable := 0
	for _, b := range sample {
		if b < 0x09 || (b > 0x0d && b < 0x20) || b == 0x7f {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(sample)) > 0.30
}

var binaryExtensions = map[string]pipeline.BinaryCategory{
	".png": pipeline.CategoryImage, ".jpg": pipeline.CategoryImage, ".jpeg": pipeline.CategoryImage,
	".gif": pipeline.CategoryImage, ".bmp": pipeline.CategoryImage, ".webp": pipeline.CategoryImage,
	".zip": pipeline.CategoryArchive, ".tar": pipeline.CategoryArchive, ".gz": pipeline.CategoryArchive,
	".7z": pipeline.CategoryArchive, ".rar": pipeline.CategoryArchive,
	".exe": pipeline.CategoryExecutable, ".dll": pipeline.CategoryExecutable, ".so": pipeline.CategoryExecutable,
	".dylib": pipeline.CategoryExecutable, ".bin": pipeline.CategoryExecutable,
}

func categorize(path string) pipeline.BinaryCategory {
	idx := strings.LastIndexByte(path, '.')
	if idx == -1 {
		return pipeline.CategoryOther
	}
	ext := strings.ToLower(path[idx:])
	if cat, ok := binaryExtensions[ext]; ok {
		return cat
	}
	return pipeline.CategoryOther
}
