package pipeline

import "time"

// State is a stage's position in the per-run state machine of spec.md §4.18:
// pending → running → (succeeded | recovered | failed).
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateRecovered State = "recovered"
	StateFailed    State = "failed"
)

// Stage is the base contract every pipeline stage implements. Only Name and
// Process are mandatory; the remaining hooks default to no-ops via
// BaseStage, which concrete stages embed.
type Stage interface {
	// Name identifies the stage for events, statistics, and error messages.
	Name() string

	// Init runs once per run, before any file is processed.
	Init(rc *RunContext) error

	// Validate runs before Process on each invocation; a non-nil error
	// becomes a ValidationError and aborts the stage.
	Validate(rc *RunContext, in *WorkingSet) error

	// BeforeRun runs immediately before Process, once per Process call.
	BeforeRun(rc *RunContext, in *WorkingSet) error

	// Process is the stage's mandatory transformation of the working set.
	Process(rc *RunContext, in *WorkingSet) (*WorkingSet, error)

	// AfterRun runs after a successful Process call.
	AfterRun(rc *RunContext, out *WorkingSet) error

	// OnError is called for logging purposes whenever Process (or Validate)
	// returns an error; it never alters control flow.
	OnError(rc *RunContext, err error, in *WorkingSet)

	// HandleError is the stage's recovery hook. Returning a non-nil
	// WorkingSet and nil error allows the pipeline to continue with that
	// working set in the StateRecovered state; returning a nil WorkingSet
	// (or a non-nil error) leaves the stage StateFailed.
	HandleError(rc *RunContext, err error, in *WorkingSet) (*WorkingSet, error)
}

// BaseStage provides no-op defaults for every optional Stage hook. Concrete
// stages embed *BaseStage and override only what they need, following the
// teacher's preference for small, single-purpose types over deep inheritance
// chains (spec.md §9: "class-based polymorphism becomes an interface/
// capability set").
type BaseStage struct{ StageName string }

func (b *BaseStage) Name() string { return b.StageName }

func (b *BaseStage) Init(*RunContext) error { return nil }

func (b *BaseStage) Validate(*RunContext, *WorkingSet) error { return nil }

func (b *BaseStage) BeforeRun(*RunContext, *WorkingSet) error { return nil }

func (b *BaseStage) AfterRun(*RunContext, *WorkingSet) error { return nil }

func (b *BaseStage) OnError(rc *RunContext, err error, _ *WorkingSet) {
	if rc != nil && rc.Logger != nil {
		rc.Logger.Error("stage error", "stage", b.StageName, "error", err)
	}
}

// HandleError's default never recovers: it returns the error unchanged so
// the driver treats the stage as failed unless ContinueOnError is set.
func (b *BaseStage) HandleError(_ *RunContext, err error, _ *WorkingSet) (*WorkingSet, error) {
	return nil, err
}

// runStage drives a single stage invocation through validate → beforeRun →
// process → afterRun/onError(+handleError), emitting the stage:* events and
// recording statistics. It implements the per-stage state machine of
// spec.md §4.18.
func runStage(rc *RunContext, st Stage, in *WorkingSet, continueOnError bool) (*WorkingSet, State, error) {
	name := st.Name()
	rc.Events.Publish(Event{Kind: EventStageStart, Stage: name})

	started := time.Now()
	inputN := 0
	if in != nil {
		inputN = len(in.Files)
	}

	if err := st.Validate(rc, in); err != nil {
		verr := NewValidationError(name, err.Error())
		st.OnError(rc, verr, in)
		rc.Events.Publish(Event{Kind: EventStageError, Stage: name, Err: verr})
		return handleFailure(rc, st, in, verr, continueOnError, started, inputN)
	}

	if err := st.BeforeRun(rc, in); err != nil {
		st.OnError(rc, err, in)
		rc.Events.Publish(Event{Kind: EventStageError, Stage: name, Err: err})
		return handleFailure(rc, st, in, err, continueOnError, started, inputN)
	}

	out, err := st.Process(rc, in)
	if err != nil {
		st.OnError(rc, err, in)
		rc.Events.Publish(Event{Kind: EventStageError, Stage: name, Err: err})
		return handleFailure(rc, st, in, err, continueOnError, started, inputN)
	}

	if err := st.AfterRun(rc, out); err != nil {
		st.OnError(rc, err, in)
		rc.Events.Publish(Event{Kind: EventStageError, Stage: name, Err: err})
		return handleFailure(rc, st, in, err, continueOnError, started, inputN)
	}

	outputN := 0
	if out != nil {
		outputN = len(out.Files)
	}
	dur := time.Since(started)
	rc.Stats.RecordStage(StageStat{Stage: name, Duration: dur, InputSize: inputN, OutputSize: outputN, FileCount: outputN})
	rc.Events.Publish(Event{Kind: EventStageComplete, Stage: name, Duration: dur, InputN: inputN, OutputN: outputN})

	return out, StateSucceeded, nil
}

func handleFailure(rc *RunContext, st Stage, in *WorkingSet, err error, continueOnError bool, started time.Time, inputN int) (*WorkingSet, State, error) {
	name := st.Name()
	if recovered, rerr := st.HandleError(rc, err, in); rerr == nil && recovered != nil {
		dur := time.Since(started)
		rc.Stats.RecordStage(StageStat{Stage: name, Duration: dur, InputSize: inputN, OutputSize: len(recovered.Files), Recovered: true})
		rc.Events.Publish(Event{Kind: EventStageRecover, Stage: name})
		return recovered, StateRecovered, nil
	}

	if continueOnError {
		// Pass the stage's input through unchanged, per spec.md §4.18.
		dur := time.Since(started)
		rc.Stats.RecordStage(StageStat{Stage: name, Duration: dur, InputSize: inputN, OutputSize: inputN, Errors: 1})
		rc.Logger.Warn("stage failed, continuing with unchanged input", "stage", name, "error", err)
		return in, StateFailed, nil
	}

	rc.Stats.RecordStage(StageStat{Stage: name, Duration: time.Since(started), InputSize: inputN, Errors: 1})
	return nil, StateFailed, err
}
