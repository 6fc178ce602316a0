package stages

import (
	"sort"
	"strings"

	"github.com/copytree/copytree/internal/cache"
	"github.com/copytree/copytree/internal/pipeline"
	"github.com/copytree/copytree/internal/relevance"
)

// DedupStage groups entries by content hash, retaining the entry with the
// shortest relative path (lexicographic tie-break), per spec.md §4.11. Since
// ContentHash is only populated after FileLoad, this stage hashes each
// entry's content directly if ContentHash is still zero.
type DedupStage struct {
	pipeline.BaseStage
}

func NewDedupStage() *DedupStage {
	return &DedupStage{BaseStage: pipeline.BaseStage{StageName: "dedup"}}
}

func (s *DedupStage) Process(_ *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	best := make(map[uint64]*pipeline.FileEntry)
	order := make([]uint64, 0, len(in.Files))
	removed := 0

	for _, fe := range in.Files {
		hash := fe.ContentHash
		if hash == 0 && fe.Content != "" {
			hash = cache.HashContent([]byte(fe.Content))
		}

		existing, ok := best[hash]
		if !ok {
			best[hash] = fe
			order = append(order, hash)
			continue
		}
		removed++
		if isShorterOrEarlier(fe.Path, existing.Path) {
			best[hash] = fe
		}
	}

	out := pipeline.NewWorkingSet()
	out.TotalFound = in.TotalFound
	out.SkipReasons = in.SkipReasons
	for _, h := range order {
		out.Files = append(out.Files, best[h])
	}
	if removed > 0 {
		out.SkipReasons["duplicates_removed"] = removed
	}
	return out, nil
}

func isShorterOrEarlier(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// SortStage orders entries lexicographically by relative path, segment by
// segment (directory-aware), per spec.md §4.11. When rc.Options.OrderBy is
// "modified" or "tier" it sorts by that key instead, falling back to path
// order as the stable tie-break.
type SortStage struct {
	pipeline.BaseStage
}

func NewSortStage() *SortStage {
	return &SortStage{BaseStage: pipeline.BaseStage{StageName: "sort"}}
}

func (s *SortStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	files := make([]*pipeline.FileEntry, len(in.Files))
	copy(files, in.Files)

	switch rc.Options.OrderBy {
	case "modified":
		sort.SliceStable(files, func(i, j int) bool {
			if !files[i].ModTime.Equal(files[j].ModTime) {
				return files[i].ModTime.After(files[j].ModTime)
			}
			return segmentLess(files[i].Path, files[j].Path)
		})
	case "tier":
		files = relevance.ClassifyAndSort(files, relevance.DefaultTierDefinitions())
	default:
		sort.SliceStable(files, func(i, j int) bool {
			return segmentLess(files[i].Path, files[j].Path)
		})
	}

	in.Files = files
	return in, nil
}

// segmentLess compares two relative paths segment by segment so that e.g.
// "a-b.go" and "a/b.go" sort the way a directory tree view expects, rather
// than plain byte-wise string comparison.
func segmentLess(a, b string) bool {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}

// LimitStage truncates the list to rc.Options.MaxFiles and enforces
// rc.Options.MaxTotalSize by dropping the largest remaining files last,
// per spec.md §4.11. Both limits are independently configurable (zero
// disables the corresponding limit).
type LimitStage struct {
	pipeline.BaseStage
}

func NewLimitStage() *LimitStage {
	return &LimitStage{BaseStage: pipeline.BaseStage{StageName: "limit"}}
}

func (s *LimitStage) Process(rc *pipeline.RunContext, in *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	files := in.Files
	dropped := 0

	if rc.Options.MaxFiles > 0 && len(files) > rc.Options.MaxFiles {
		dropped += len(files) - rc.Options.MaxFiles
		files = files[:rc.Options.MaxFiles]
	}

	if rc.Options.MaxTotalSize > 0 {
		var total int64
		kept := make([]*pipeline.FileEntry, 0, len(files))
		byIndex := make([]*pipeline.FileEntry, len(files))
		copy(byIndex, files)

		sort.SliceStable(byIndex, func(i, j int) bool { return byIndex[i].Size < byIndex[j].Size })

		keepSet := make(map[*pipeline.FileEntry]bool, len(files))
		for _, fe := range byIndex {
			if total+fe.Size > rc.Options.MaxTotalSize {
				continue
			}
			total += fe.Size
			keepSet[fe] = true
		}
		for _, fe := range files {
			if keepSet[fe] {
				kept = append(kept, fe)
			} else {
				dropped++
			}
		}
		files = kept
	}

	in.Files = files
	if dropped > 0 {
		in.RecordSkip("limit_exceeded")
	}
	return in, nil
}
