package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"beatdown/internal/sched"
)

// Messages
type statusMsg sched.StatusEvent

type refreshMsg time.Time

// Model is the root Bubble Tea model for the countdown display. It consumes
// the scheduler's status stream and public queries only; all countdown state
// lives in the scheduler.
type Model struct {
	sched *sched.Scheduler
	keys  KeyMap

	width  int
	height int

	snap     sched.Snapshot
	prog     progress.Model
	flash    int // refresh frames left of beat highlight
	lastBeat int
}

// NewModel wires the display to a scheduler.
func NewModel(s *sched.Scheduler) Model {
	return Model{
		sched: s,
		keys:  DefaultKeyMap(),
		snap:  s.State(),
		prog:  progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForStatus(m.sched.StatusChannel()), refresh())
}

// waitForStatus blocks on the scheduler's status stream and forwards one
// event; Update re-issues it to keep the subscription alive.
func waitForStatus(ch <-chan sched.StatusEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg(ev)
	}
}

func refresh() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prog.Width = min(msg.Width-12, 60)
		return m, nil

	case statusMsg:
		m.snap = m.sched.State()
		if msg.Kind == sched.StatusBeat {
			m.flash = 2
			m.lastBeat = msg.Beat
		}
		return m, waitForStatus(m.sched.StatusChannel())

	case refreshMsg:
		m.snap = m.sched.State()
		if m.flash > 0 {
			m.flash--
		}
		return m, refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			if m.snap.IsRunning {
				m.sched.Stop()
			} else {
				m.sched.Resume()
			}
		case key.Matches(msg, m.keys.Reset):
			m.sched.Reset()
		case key.Matches(msg, m.keys.TempoUp):
			m.sched.SetTempo(m.snap.BPM + 1)
		case key.Matches(msg, m.keys.TempoDn):
			m.sched.SetTempo(m.snap.BPM - 1)
		case key.Matches(msg, m.keys.Double):
			m.sched.MultiplyTempo()
		case key.Matches(msg, m.keys.Halve):
			m.sched.DivideTempo()
		case key.Matches(msg, m.keys.Required):
			m.sched.SetRequiredTempo()
		case key.Matches(msg, m.keys.Suppress):
			m.sched.DisableFor(5)
		}
		m.snap = m.sched.State()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	snap := m.snap

	countStyle := CountStyle
	if m.flash > 0 {
		countStyle = CountFlashStyle
	}
	count := countStyle.Render(fmt.Sprintf("%d", snap.RemainingBeats))

	tempoLine := TempoStyle.Render(fmt.Sprintf("%.0f bpm", snap.BPM))
	if snap.RequiredBPM > 0 {
		tempoLine += RequiredStyle.Render(fmt.Sprintf("  (need %.0f)", snap.RequiredBPM))
	}

	clock := ClockStyle.Render(fmt.Sprintf("%02d:%02d",
		snap.RemainingSeconds/60, snap.RemainingSeconds%60))

	pct := 0.0
	if snap.TotalBeats > 0 {
		pct = float64(snap.TotalBeats-snap.RemainingBeats) / float64(snap.TotalBeats)
	}

	state := "stopped"
	switch {
	case snap.IsSuppressed:
		state = "silenced"
	case snap.IsRunning:
		state = "running"
	case snap.RemainingBeats == 0 && snap.TotalBeats > 0:
		state = "done"
	}
	if m.lastBeat > 0 {
		state = fmt.Sprintf("%s · beat %d/%d", state, m.lastBeat, snap.TotalBeats)
	}

	var help []string
	for _, b := range m.keys.ShortHelp() {
		help = append(help, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		count,
		"",
		tempoLine,
		clock,
		"",
		m.prog.ViewAs(pct),
		StateStyle.Render(state),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render("beatdown"),
		PanelStyle.Render(body),
		HelpStyle.Render(" "+strings.Join(help, " · ")),
	)
}
