package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stillpoint/internal/ui/components"
	"stillpoint/internal/ui/theme"
	historyview "stillpoint/internal/ui/views/history"
	practiceview "stillpoint/internal/ui/views/practice"
)

type tabID int

const (
	tabPractice tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Practice", "History"}

type keyMap struct {
	Tab      key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
	Duration key.Binding
	Emotion  key.Binding
	Start    key.Binding
	End      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Duration: key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "duration")),
		Emotion:  key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "emotion")),
		Start:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start / continue")),
		End:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "end early")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Duration, k.Emotion},
		{k.Start, k.End},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// Model is the root Bubble Tea model. It routes input between the practice
// screen, the history list, the help overlay and the command palette.
type Model struct {
	practice practiceview.Model
	history  historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// NewModel takes a nil history port when history is kept remotely.
func NewModel(engine practiceview.EnginePort, history historyview.HistoryPort, emotions []string) Model {
	return Model{
		practice:  practiceview.New(engine, emotions),
		history:   historyview.New(history),
		activeTab: tabPractice,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.practice.Init(), m.history.Init())
}

// Stop detaches the practice screen from the engine.
func (m Model) Stop() {
	m.practice.Stop()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 64))
		m.help.Width = m.width
		sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
		m.practice, _ = m.practice.Update(sz)
		m.history, _ = m.history.Update(sz)
		return m, nil

	case practiceview.SnapshotMsg:
		before := m.practice.Snapshot()
		var cmd tea.Cmd
		m.practice, cmd = m.practice.Update(msg)
		after := m.practice.Snapshot()
		if before.Persistence.Status == "pending" && after.Persistence.Status == "saved" {
			m.status = "session saved"
			return m, tea.Batch(cmd, m.history.Refresh())
		}
		return m, cmd

	case practiceview.ActionMsg:
		if msg.Err == nil {
			m.status = msg.Action
		}
		var cmd tea.Cmd
		m.practice, cmd = m.practice.Update(msg)
		return m, cmd

	case historyview.LoadedMsg, historyview.ReindexedMsg:
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var practiceCmd, historyCmd tea.Cmd
		m.practice, practiceCmd = m.practice.Update(msg)
		m.history, historyCmd = m.history.Update(msg)
		return m, tea.Batch(practiceCmd, historyCmd)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabHistory && m.history.Filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabPractice:
		m.practice, cmd = m.practice.Update(msg)
	case tabHistory:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabHistory:
		content = m.history.View()
	default:
		content = m.practice.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "stillpoint  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if snapshot := m.practice.Snapshot(); snapshot.Status == "active" && snapshot.Session != nil {
		left = theme.Hot.Render("● "+snapshot.Session.Title) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  ::command  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "emotion":
		if len(parts) < 2 {
			m.status = "usage: emotion <name>"
			return m, nil
		}
		m.activeTab = tabPractice
		return m, m.practice.SetEmotion(parts[1])

	case "duration":
		if len(parts) < 2 {
			m.status = "usage: duration <1-10>"
			return m, nil
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil || minutes < 1 || minutes > 10 {
			m.status = fmt.Sprintf("invalid duration %q", parts[1])
			return m, nil
		}
		m.activeTab = tabPractice
		return m, m.practice.SetDuration(minutes)

	case "start":
		m.activeTab = tabPractice
		return m, m.practice.Start()

	case "end":
		return m, m.practice.End()

	case "ack":
		return m, m.practice.Acknowledge()

	case "history:refresh":
		m.activeTab = tabHistory
		return m, m.history.Refresh()

	case "history:reindex":
		m.activeTab = tabHistory
		m.status = "reindexing…"
		return m, m.history.Reindex()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}
