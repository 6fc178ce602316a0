package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/copytree/copytree/internal/ignore"
	"github.com/copytree/copytree/internal/pipeline"
)

// FileDiscoveryStage walks the source tree rooted at rc.Options.Dir,
// applying default ignore patterns, nested .gitignore/.copytreeignore rules,
// always-include overrides, max-depth, and symlink-loop detection. It emits
// one FileEntry per surviving path with Path/AbsPath/Size/ModTime populated;
// content loading is deferred to the FileLoad stage (spec.md §4.2/§4.7).
type FileDiscoveryStage struct {
	pipeline.BaseStage
	logger *slog.Logger
}

// NewFileDiscoveryStage creates the discovery stage.
func NewFileDiscoveryStage() *FileDiscoveryStage {
	return &FileDiscoveryStage{
		BaseStage: pipeline.BaseStage{StageName: "discovery"},
		logger:    slog.Default().With("component", "discovery"),
	}
}

func (s *FileDiscoveryStage) Process(rc *pipeline.RunContext, _ *pipeline.WorkingSet) (*pipeline.WorkingSet, error) {
	opts := rc.Options
	root, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, pipeline.NewPathError("discovery", fmt.Sprintf("resolving root %s: %v", opts.Dir, err), err)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, pipeline.NewPathError("discovery", fmt.Sprintf("root %s is not a directory", root), nil)
	}

	gitMatcher, err := ignore.NewNestedMatcher(root, ".gitignore")
	if err != nil {
		return nil, pipeline.NewIgnorePatternError("discovery", "compiling .gitignore rules", err)
	}
	ctMatcher, err := ignore.NewNestedMatcher(root, ".copytreeignore")
	if err != nil {
		return nil, pipeline.NewIgnorePatternError("discovery", "compiling .copytreeignore rules", err)
	}
	composite := ignore.NewComposite(ignore.NewDefaultMatcher(), gitMatcher, ctMatcher)

	always := make(map[string]bool)
	if rc.Profile != nil {
		for _, p := range rc.Profile.AlwaysInclude {
			always[filepath.ToSlash(p)] = true
		}
	}

	symResolver := NewSymlinkResolver()

	ws := pipeline.NewWorkingSet()
	var mu sync.Mutex

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if rc.Cancelled() {
			return rc.Context.Err()
		}
		if walkErr != nil {
			s.logger.Debug("walk error", "path", path, "error", walkErr)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		isDir := d.IsDir()
		if isDir && d.Name() == ".git" {
			return fs.SkipDir
		}

		if opts.MaxDepth > 0 && strings.Count(relPath, "/") >= opts.MaxDepth {
			if isDir {
				return fs.SkipDir
			}
			mu.Lock()
			ws.TotalFound++
			ws.RecordSkip("max_depth")
			mu.Unlock()
			return nil
		}

		ignored := composite.IsIgnored(relPath, isDir) && !always[relPath]
		if ignored {
			if isDir {
				mu.Lock()
				ws.RecordSkip("ignored_dir")
				mu.Unlock()
				return fs.SkipDir
			}
			mu.Lock()
			ws.TotalFound++
			ws.RecordSkip("ignored")
			mu.Unlock()
			return nil
		}

		if isDir {
			return nil
		}

		mu.Lock()
		ws.TotalFound++
		mu.Unlock()

		absPath := path
		if d.Type()&os.ModeSymlink != 0 {
			realPath, isLoop, err := symResolver.Resolve(path)
			if err != nil {
				mu.Lock()
				ws.RecordSkip("symlink_error")
				mu.Unlock()
				return nil
			}
			if isLoop {
				mu.Lock()
				ws.RecordSkip("symlink_loop")
				mu.Unlock()
				return nil
			}
			symResolver.MarkVisited(realPath)
			absPath = realPath
		}

		fileInfo, err := os.Stat(absPath)
		if err != nil {
			mu.Lock()
			ws.RecordSkip("stat_error")
			mu.Unlock()
			return nil
		}

		fe := &pipeline.FileEntry{
			Path:    relPath,
			AbsPath: absPath,
			Size:    fileInfo.Size(),
			ModTime: fileInfo.ModTime(),
		}
		mu.Lock()
		ws.Files = append(ws.Files, fe)
		mu.Unlock()
		return nil
	})
	if walkErr != nil {
		return nil, pipeline.NewPathError("discovery", fmt.Sprintf("walking %s", root), walkErr)
	}

	sort.Slice(ws.Files, func(i, j int) bool { return ws.Files[i].Path < ws.Files[j].Path })

	s.logger.Info("discovery complete", "files", len(ws.Files), "total_found", ws.TotalFound, "total_skipped", ws.TotalSkipped())
	return ws, nil
}
