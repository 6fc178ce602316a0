package discovery

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/copytree/copytree/internal/pipeline"
)

// GitTrackedFiles runs `git ls-files` in the given root directory and returns
// a set of file paths relative to the root that are tracked by Git. This is
// used to implement the --git-tracked-only flag, which restricts discovery to
// files in the Git index.
//
// The returned map uses relative paths (as output by git ls-files) as keys,
// with all values set to true for O(1) membership checks.
//
// Errors are returned when:
//   - The directory is not a Git repository (git ls-files fails).
//   - The git command is not found on PATH.
//
// An empty repository (no tracked files) returns an empty map and a nil error.
func GitTrackedFiles(root string) (map[string]bool, error) {
	cmd := exec.Command("git", "ls-files")
	cmd.Dir = root

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed in %s: %w (is this a git repository?)", root, err)
	}

	files := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			files[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parsing git ls-files output: %w", err)
	}

	return files, nil
}

// GitStatusMap runs `git status --porcelain` in root and returns a map from
// relative path to pipeline.GitStatus, used by the GitFilter stage's
// "modified" mode (spec.md §4.8). A renamed entry ("R  old -> new") is keyed
// under the new path.
func GitStatusMap(root string) (map[string]pipeline.GitStatus, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = root

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git status failed in %s: %w (is this a git repository?)", root, err)
	}

	statuses := make(map[string]pipeline.GitStatus)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])

		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
			statuses[path] = pipeline.GitRenamed
			continue
		}

		switch {
		case strings.Contains(code, "D"):
			statuses[path] = pipeline.GitDeleted
		case strings.Contains(code, "A"):
			statuses[path] = pipeline.GitAdded
		case code == "??":
			statuses[path] = pipeline.GitUntracked
		default:
			statuses[path] = pipeline.GitModified
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parsing git status output: %w", err)
	}
	return statuses, nil
}

// GitDiffNames runs `git diff --name-status` between ref and the working
// tree (or HEAD if ref is empty) and returns the set of changed relative
// paths, used by the GitFilter stage's "changed" mode to compare against an
// arbitrary ref.
func GitDiffNames(root, ref string) (map[string]pipeline.GitStatus, error) {
	args := []string{"diff", "--name-status"}
	if ref != "" {
		args = append(args, ref)
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = root

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed in %s: %w", root, err)
	}

	statuses := make(map[string]pipeline.GitStatus)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		code, path := fields[0], fields[len(fields)-1]
		switch code[0] {
		case 'A':
			statuses[path] = pipeline.GitAdded
		case 'D':
			statuses[path] = pipeline.GitDeleted
		case 'R':
			statuses[path] = pipeline.GitRenamed
		default:
			statuses[path] = pipeline.GitModified
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parsing git diff output: %w", err)
	}
	return statuses, nil
}
