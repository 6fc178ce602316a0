// Package deliver implements the terminal side effect of a run (spec.md
// §4.17): copying the rendered document to the clipboard, writing it to a
// file, printing it to stdout, or leaving a file reference behind on
// platforms where dumping the whole document to the terminal isn't useful.
// Exactly one destination is used per run.
//
// There is no teacher precedent for this stage — Copytree logs cfg.Output and
// cfg.Stdout fields but never implements delivery. The clipboard API shape
// (clipboard.WriteAll/ReadAll) is grounded on
// _examples/theRebelliousNerd-codenerd/cmd/nerd/ui/jit_page.go, which wraps
// the same github.com/atotto/clipboard package this repo already depends on.
package deliver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"

	"github.com/copytree/copytree/internal/pipeline"
)

// Target names the single destination a run's output is delivered to.
type Target string

const (
	TargetClipboard Target = "clipboard"
	TargetStdout    Target = "stdout"
	TargetFile      Target = "file"
	TargetReference Target = "reference"
)

// Result describes what actually happened during delivery, so --info and the
// CLI layer can report it without re-deriving the decision.
type Result struct {
	Target          Target
	Path            string // set for file, reference, and clipboard-fallback deliveries
	ClipboardFailed bool   // true when clipboard was requested but unavailable
	Bytes           int
}

// clipboardWriteAll is overridden in tests to avoid touching the real OS
// clipboard, following the seam used by codenerd's jit_page.go.
var clipboardWriteAll = clipboard.WriteAll

// ResolveTarget decides the destination from the resolved options, in the
// precedence spec.md §6 implies from flag order: an explicit file-reference
// request wins, then an explicit output path, then --display, and clipboard
// is the default when none of those are set.
func ResolveTarget(opts *pipeline.Options) Target {
	switch {
	case opts.AsReference:
		return TargetReference
	case opts.Output != "":
		return TargetFile
	case opts.Display:
		return TargetStdout
	default:
		return TargetClipboard
	}
}

// Deliver renders content to the destination resolved from rc.Options.
// stdout is the writer stdout-target and reference-notice output are written
// to; it is never the delivery destination itself unless Target is
// TargetStdout.
func Deliver(rc *pipeline.RunContext, content string, stdout io.Writer) (*Result, error) {
	switch target := ResolveTarget(rc.Options); target {
	case TargetStdout:
		if _, err := io.WriteString(stdout, content); err != nil {
			return nil, pipeline.NewDeliveryError("Deliver", "writing to stdout", err)
		}
		return &Result{Target: TargetStdout, Bytes: len(content)}, nil

	case TargetFile:
		path, err := resolvePath(rc.Options.Output, rc.Options.CacheDir)
		if err != nil {
			return nil, err
		}
		if err := atomicWrite(path, content); err != nil {
			return nil, pipeline.NewDeliveryError("Deliver", "writing output file "+path, err)
		}
		return &Result{Target: TargetFile, Path: path, Bytes: len(content)}, nil

	case TargetReference:
		path, err := resolvePath(rc.Options.Output, rc.Options.CacheDir)
		if err != nil {
			return nil, err
		}
		if err := atomicWrite(path, content); err != nil {
			return nil, pipeline.NewDeliveryError("Deliver", "writing reference file "+path, err)
		}
		if _, err := fmt.Fprintf(stdout, "Context document written to %s (%d bytes)\n", path, len(content)); err != nil {
			return nil, pipeline.NewDeliveryError("Deliver", "writing reference notice", err)
		}
		return &Result{Target: TargetReference, Path: path, Bytes: len(content)}, nil

	default: // TargetClipboard
		if err := clipboardWriteAll(content); err != nil {
			path, werr := resolvePath("", rc.Options.CacheDir)
			if werr != nil {
				return nil, werr
			}
			if werr := atomicWrite(path, content); werr != nil {
				return nil, pipeline.NewDeliveryError("Deliver", "clipboard fallback write", werr)
			}
			if _, werr := fmt.Fprintf(stdout, "Clipboard unavailable; content written to %s\n", path); werr != nil {
				return nil, pipeline.NewDeliveryError("Deliver", "writing clipboard fallback notice", werr)
			}
			return &Result{Target: TargetClipboard, Path: path, ClipboardFailed: true, Bytes: len(content)}, nil
		}
		return &Result{Target: TargetClipboard, Bytes: len(content)}, nil
	}
}

// resolvePath picks the destination file path: the explicit one if given,
// otherwise a timestamped name under the configured outputs directory
// (falling back to the OS temp directory if none is configured, which is
// also where the clipboard fallback lands).
func resolvePath(explicit, outputsDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	dir := outputsDir
	if dir == "" {
		dir = os.TempDir()
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", pipeline.NewDeliveryError("Deliver", "creating outputs directory "+dir, err)
	}
	name := fmt.Sprintf("copytree-%s.txt", time.Now().UTC().Format("20060102T150405.000000000Z"))
	return filepath.Join(dir, name), nil
}

// atomicWrite writes content to a temp file in the destination's directory
// and renames it into place, so a failed or interrupted write never leaves a
// half-written destination file (spec.md §7).
func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".copytree-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := io.WriteString(tmp, content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
