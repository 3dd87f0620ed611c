package practice

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	practicedto "stillpoint/internal/modules/practice/dto"
	"stillpoint/internal/ui/theme"
)

type EnginePort interface {
	Snapshot() practicedto.Snapshot
	Subscribe(fn func(practicedto.Snapshot)) (unsubscribe func())
	SetEmotion(emotion string) error
	SetDuration(minutes int) error
	Start(ctx context.Context) error
	End(ctx context.Context) error
	AcknowledgeReward() error
}

// SnapshotMsg carries engine state read after a change notification.
type SnapshotMsg struct {
	Snapshot practicedto.Snapshot
}

type ActionMsg struct {
	Action string
	Err    error
}

type Model struct {
	engine      EnginePort
	updates     chan struct{}
	done        chan struct{}
	unsubscribe func()

	snapshot practicedto.Snapshot
	emotions []string
	spinner  spinner.Model
	progress progress.Model
	lastErr  string
	width    int
}

// New subscribes to engine changes. Call Stop when the program exits.
func New(engine EnginePort, emotions []string) Model {
	updates := make(chan struct{}, 1)
	unsubscribe := engine.Subscribe(func(practicedto.Snapshot) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	bar := progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage())

	return Model{
		engine:      engine,
		updates:     updates,
		done:        make(chan struct{}),
		unsubscribe: unsubscribe,
		snapshot:    engine.Snapshot(),
		emotions:    emotions,
		spinner:     sp,
		progress:    bar,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitCmd(), m.spinner.Tick)
}

func (m Model) Stop() {
	m.unsubscribe()
	close(m.done)
}

func (m Model) Snapshot() practicedto.Snapshot { return m.snapshot }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-12, 10)

	case SnapshotMsg:
		if msg.Snapshot.Version >= m.snapshot.Version {
			m.snapshot = msg.Snapshot
		}
		return m, m.waitCmd()

	case ActionMsg:
		if msg.Err != nil {
			m.lastErr = msg.Action + ": " + msg.Err.Error()
		} else {
			m.lastErr = ""
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) tea.Cmd {
	switch m.snapshot.Status {
	case "idle":
		switch key {
		case "left", "-":
			return m.SetDuration(m.snapshot.DurationMinutes - 1)
		case "right", "+", "=":
			return m.SetDuration(m.snapshot.DurationMinutes + 1)
		case "up":
			return m.SetEmotion(m.cycleEmotion(-1))
		case "down":
			return m.SetEmotion(m.cycleEmotion(1))
		case "enter", "s":
			return m.Start()
		}
	case "active":
		if key == "x" || key == "e" {
			return m.End()
		}
	case "finished":
		if key == "enter" || key == "a" {
			return m.Acknowledge()
		}
	}
	return nil
}

func (m Model) cycleEmotion(step int) string {
	if len(m.emotions) == 0 {
		return m.snapshot.Emotion
	}
	current := 0
	for i, emotion := range m.emotions {
		if strings.EqualFold(emotion, m.snapshot.Emotion) {
			current = i
			break
		}
	}
	next := (current + step + len(m.emotions)) % len(m.emotions)
	return m.emotions[next]
}

func (m Model) SetEmotion(emotion string) tea.Cmd {
	return m.actionCmd("emotion", func() error { return m.engine.SetEmotion(emotion) })
}

func (m Model) SetDuration(minutes int) tea.Cmd {
	if minutes < 1 || minutes > 10 {
		return nil
	}
	return m.actionCmd("duration", func() error { return m.engine.SetDuration(minutes) })
}

func (m Model) Start() tea.Cmd {
	return m.actionCmd("start", func() error { return m.engine.Start(context.Background()) })
}

func (m Model) End() tea.Cmd {
	return m.actionCmd("end", func() error { return m.engine.End(context.Background()) })
}

func (m Model) Acknowledge() tea.Cmd {
	return m.actionCmd("acknowledge", m.engine.AcknowledgeReward)
}

func (m Model) actionCmd(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return ActionMsg{Action: action, Err: fn()}
	}
}

func (m Model) waitCmd() tea.Cmd {
	updates, done, engine := m.updates, m.done, m.engine
	return func() tea.Msg {
		select {
		case <-updates:
			return SnapshotMsg{Snapshot: engine.Snapshot()}
		case <-done:
			return nil
		}
	}
}

func (m Model) View() string {
	s := m.snapshot
	var sb strings.Builder
	header := fmt.Sprintf("%s · %s · %d min", titleCase(s.ActivityType), s.Emotion, s.DurationMinutes)
	sb.WriteString(theme.Title.Render(header) + "\n\n")

	switch s.Status {
	case "active":
		sb.WriteString(m.activeView())
	case "finished":
		sb.WriteString(m.rewardView())
	default:
		sb.WriteString(m.idleView())
	}
	if m.lastErr != "" {
		sb.WriteString("\n" + theme.Bad.Render(m.lastErr) + "\n")
	}
	return theme.PaneActive.Width(max(m.width-4, 40)).Render(sb.String())
}

func (m Model) idleView() string {
	s := m.snapshot
	var sb strings.Builder
	if s.Selecting {
		sb.WriteString(m.spinner.View() + " matching content…\n")
	}
	cfg := s.Selection.Configuration
	sb.WriteString(fmt.Sprintf("%s  %s\n", theme.Hot.Render(cfg.Title), theme.Muted.Render(fmt.Sprintf("%d min · %d karma", cfg.DurationMinutes, cfg.KarmaPoints))))
	switch {
	case s.Selection.CatalogUnavailable:
		sb.WriteString(theme.Warn.Render("catalog unavailable, using a default session") + "\n")
	case s.Selection.NoConfigurationForEmotion:
		sb.WriteString(theme.Warn.Render("no configuration for "+s.Emotion+", using a default session") + "\n")
	case len(s.Selection.Candidates) > 1:
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("%d matching configurations", len(s.Selection.Candidates))) + "\n")
	}
	if clip := s.Selection.Clip; clip != nil {
		sb.WriteString(theme.Muted.Render("clip: "+clip.Title) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("←/→ duration  ↑/↓ emotion  enter start"))
	return sb.String()
}

func (m Model) activeView() string {
	s := m.snapshot
	if s.Session == nil {
		return ""
	}
	session := s.Session
	var sb strings.Builder
	sb.WriteString(theme.Hot.Render(session.Title) + "\n")
	sb.WriteString(theme.Countdown.Render(formatClock(session.RemainingSeconds)) + "\n")
	total := session.TargetMinutes * 60
	elapsed := 0.0
	if total > 0 {
		elapsed = float64(total-session.RemainingSeconds) / float64(total)
	}
	sb.WriteString(m.progress.ViewAs(elapsed) + "\n\n")
	for _, media := range session.Media {
		switch {
		case media.Playing:
			sb.WriteString(theme.Good.Render("▶ "+media.Channel) + "\n")
		case media.Error != "":
			sb.WriteString(theme.Warn.Render("✕ "+media.Channel+": "+media.Error) + "\n")
		default:
			sb.WriteString(theme.Muted.Render("… "+media.Channel) + "\n")
		}
	}
	if !session.Authenticated {
		sb.WriteString(theme.Warn.Render("sign in to save progress") + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("x end early"))
	return sb.String()
}

func (m Model) rewardView() string {
	s := m.snapshot
	if s.Reward == nil {
		return ""
	}
	r := s.Reward
	var sb strings.Builder
	if r.Natural {
		sb.WriteString(theme.Good.Render("Session complete") + "\n")
	} else {
		sb.WriteString(theme.Hot.Render("Session ended early") + "\n")
	}
	sb.WriteString(fmt.Sprintf("%d of %d minutes\n", r.CompletedMinutes, r.TargetMinutes))
	sb.WriteString(m.progress.ViewAs(r.Fraction) + "\n")
	sb.WriteString(fmt.Sprintf("karma +%d of %d\n\n", r.KarmaAwarded, r.KarmaAvailable))
	if status := s.Persistence.Status; status != "" {
		line := status
		if s.Persistence.Message != "" {
			line += ": " + s.Persistence.Message
		}
		sb.WriteString(theme.Persistence(status).Render(line) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter continue"))
	return sb.String()
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func titleCase(value string) string {
	if value == "" {
		return "Practice"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
