package pipeline

import "time"

// EventKind identifies the category of a pipeline event.
type EventKind string

const (
	EventStageStart    EventKind = "stage:start"
	EventStageProgress EventKind = "stage:progress"
	EventStageComplete EventKind = "stage:complete"
	EventStageError    EventKind = "stage:error"
	EventStageRecover  EventKind = "stage:recover"
	EventFileBatch     EventKind = "file:batch"
	EventCancelled     EventKind = "pipeline:cancelled"
)

// Event is a single message emitted on the pipeline's event bus. Fields are
// populated according to Kind; zero values are unused for a given kind.
type Event struct {
	Kind     EventKind
	Stage    string
	Time     time.Time
	Percent  float64
	Message  string
	Duration time.Duration
	InputN   int
	OutputN  int
	MemDelta int64
	Err      error
}

// EventBus delivers Events to subscribers via buffered channels. Publishing
// never blocks the publisher: a full subscriber channel drops the event
// rather than stall a stage, per spec.md §5 ("no stage busy-waits").
type EventBus struct {
	subs []chan Event
}

// NewEventBus creates an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a new listener and returns a receive-only channel of
// events. The channel has a bounded buffer; slow subscribers miss events
// rather than block the pipeline.
func (b *EventBus) Subscribe() <-chan Event {
	ch := make(chan Event, 256)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish sends ev to every subscriber, non-blocking.
func (b *EventBus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop: subscriber is behind. Never block stage progress on it.
		}
	}
}

// Close closes every subscriber channel. Call once after the run completes.
func (b *EventBus) Close() {
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
