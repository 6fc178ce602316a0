// Package progress renders a live view of a run's stage pipeline, driven by
// pipeline.EventBus events. Grounded on
// _examples/theRebelliousNerd-codenerd/cmd/nerd/ui/campaign_page.go (the
// bubbles/progress + lipgloss model shape) and
// cmd/nerd/chat/model_lifecycle.go's channel-to-tea.Cmd pattern
// (waitForStatus), which wraps a blocking channel receive in a tea.Cmd so
// bubbletea's event loop can drive off an external event source instead of
// only user input.
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/copytree/copytree/internal/pipeline"
)

// stageOrder mirrors spec.md §3's canonical stage sequence; stages not in
// this list (e.g. a custom transformer's own sub-steps) are appended as
// encountered.
var stageOrder = []string{
	"discovery", "external-source", "git-filter", "profile-filter",
	"ruleset-filter", "llm-filter", "dedup", "sort", "limit",
	"file-load", "transform", "char-limit", "output-format", "secret-scan", "deliver",
}

type stageState struct {
	bar      progress.Model
	status   string // "pending", "running", "succeeded", "recovered", "failed"
	message  string
	duration time.Duration
}

// Model is a bubbletea model rendering one progress bar per pipeline stage.
type Model struct {
	events  <-chan pipeline.Event
	order   []string
	stages  map[string]*stageState
	width   int
	done    bool
	failed  bool
	lastErr error
}

// New builds a Model that consumes events from an already-subscribed
// channel. Callers typically pass the result of (*pipeline.EventBus).Subscribe.
func New(events <-chan pipeline.Event) Model {
	stages := make(map[string]*stageState, len(stageOrder))
	order := make([]string, 0, len(stageOrder))
	for _, name := range stageOrder {
		stages[name] = &stageState{bar: progress.New(progress.WithDefaultGradient()), status: "pending"}
		order = append(order, name)
	}
	return Model{events: events, order: order, stages: stages, width: 80}
}

type eventMsg struct {
	ev pipeline.Event
	ok bool
}

func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{ev: ev, ok: ok}
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *Model) stateFor(stage string) *stageState {
	st, ok := m.stages[stage]
	if !ok {
		st = &stageState{bar: progress.New(progress.WithDefaultGradient()), status: "pending"}
		m.stages[stage] = st
		m.order = append(m.order, stage)
	}
	return st
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		for _, st := range m.stages {
			st.bar.Width = msg.Width - 20
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		if !msg.ok {
			m.done = true
			return m, tea.Quit
		}
		st := (&m).stateFor(msg.ev.Stage)
		switch msg.ev.Kind {
		case pipeline.EventStageStart:
			st.status = "running"
		case pipeline.EventStageProgress:
			st.status = "running"
			st.message = msg.ev.Message
		case pipeline.EventFileBatch:
			st.message = msg.ev.Message
		case pipeline.EventStageComplete:
			st.status = "succeeded"
			st.duration = msg.ev.Duration
			st.message = fmt.Sprintf("%d -> %d files", msg.ev.InputN, msg.ev.OutputN)
		case pipeline.EventStageRecover:
			st.status = "recovered"
		case pipeline.EventStageError:
			st.status = "failed"
			m.failed = true
			if msg.ev.Err != nil {
				st.message = msg.ev.Err.Error()
				m.lastErr = msg.ev.Err
			}
		case pipeline.EventCancelled:
			m.done = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	}
	return m, nil
}

var (
	styleSucceeded = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	styleRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	styleRecovered = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	styleMuted     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func icon(status string) (string, lipgloss.Style) {
	switch status {
	case "succeeded":
		return "✓", styleSucceeded
	case "failed":
		return "✗", styleFailed
	case "running":
		return "▶", styleRunning
	case "recovered":
		return "!", styleRecovered
	default:
		return "○", styleMuted
	}
}

func (m Model) View() string {
	var b strings.Builder
	for _, name := range m.order {
		st := m.stages[name]
		ic, style := icon(st.status)
		line := fmt.Sprintf("%s %-18s %s", style.Render(ic), name, styleMuted.Render(st.message))
		if st.status == "running" {
			line = fmt.Sprintf("%s %-18s %s", style.Render(ic), name, st.bar.ViewAs(0.5))
		}
		b.WriteString(line + "\n")
	}
	if m.done {
		if m.failed {
			b.WriteString(styleFailed.Render("run failed") + "\n")
		} else {
			b.WriteString(styleSucceeded.Render("done") + "\n")
		}
	}
	return b.String()
}

// Run drives the model to completion against a tea.Program, returning the
// last stage error encountered (if any). It blocks until the event channel
// closes or the user quits.
func Run(events <-chan pipeline.Event) error {
	m := New(events)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.lastErr
	}
	return nil
}
