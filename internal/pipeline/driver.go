package pipeline

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// Driver owns the ordered stage list and runs a WorkingSet through it,
// honoring sequential/parallel mode and ContinueOnError per spec.md §4.6.
type Driver struct {
	Stages []Stage
}

// NewDriver builds a Driver from the given ordered stage list.
func NewDriver(stages ...Stage) *Driver {
	return &Driver{Stages: stages}
}

// Run drives ws through every stage in order. In sequential mode (the
// default, Options.Parallel == false) each stage sees the previous stage's
// full output. In parallel mode, stages not marked safe via ParallelSafe are
// still run as a single barrier over the whole set; stages that do implement
// ParallelSafe have their batch processed independently and merged back in
// deterministic (path-sorted) order before the next stage.
func (d *Driver) Run(rc *RunContext, ws *WorkingSet) (*WorkingSet, error) {
	cur := ws
	for _, st := range d.Stages {
		if rc.Cancelled() {
			rc.Events.Publish(Event{Kind: EventCancelled, Stage: st.Name()})
			return cur, NewCancellationError(st.Name())
		}

		if err := st.Init(rc); err != nil {
			return cur, NewConfigurationError(st.Name(), "stage init failed", err)
		}

		var (
			out   *WorkingSet
			state State
			err   error
		)

		if rc.Options.Parallel {
			if ps, ok := st.(ParallelSafe); ok {
				out, state, err = d.runParallel(rc, ps, cur)
			} else {
				out, state, err = runStage(rc, st, cur, rc.Options.ContinueOnError)
			}
		} else {
			out, state, err = runStage(rc, st, cur, rc.Options.ContinueOnError)
		}

		if err != nil && state == StateFailed {
			return cur, err
		}
		cur = out
	}
	if cur != nil {
		rc.Stats.SetFileCount(len(cur.Files))
	}
	return cur, nil
}

// ParallelSafe is implemented by stages that may process independent batches
// of the working set concurrently. Order-sensitive stages (Sort, CharLimit,
// Dedup, Limit) deliberately do not implement this interface, forcing a
// barrier as required by spec.md §4.6.
type ParallelSafe interface {
	Stage
	// Batch returns a WorkingSet containing only the given slice of files,
	// preserving ws's SkipReasons map by reference.
	Batch(ws *WorkingSet, files []*FileEntry) *WorkingSet
}

func (d *Driver) runParallel(rc *RunContext, st ParallelSafe, in *WorkingSet) (*WorkingSet, State, error) {
	maxConc := rc.Options.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 5
	}

	batches := splitBatches(in.Files, maxConc)
	results := make([][]*FileEntry, len(batches))

	g, _ := errgroup.WithContext(rc.Context)
	g.SetLimit(maxConc)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			batchWS := st.Batch(in, batch)
			out, _, err := runStage(rc, st, batchWS, rc.Options.ContinueOnError)
			if err != nil {
				return err
			}
			results[i] = out.Files
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return in, StateFailed, err
	}

	merged := in
	merged.Files = nil
	for _, r := range results {
		merged.Files = append(merged.Files, r...)
	}
	sort.Slice(merged.Files, func(i, j int) bool { return merged.Files[i].Path < merged.Files[j].Path })

	return merged, StateSucceeded, nil
}

func splitBatches(files []*FileEntry, n int) [][]*FileEntry {
	if n <= 0 || n > len(files) {
		n = len(files)
	}
	if n == 0 {
		return nil
	}
	batches := make([][]*FileEntry, 0, n)
	size := (len(files) + n - 1) / n
	if size == 0 {
		size = 1
	}
	for i := 0; i < len(files); i += size {
		end := i + size
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[i:end])
	}
	return batches
}
