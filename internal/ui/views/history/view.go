package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	practicedto "stillpoint/internal/modules/practice/dto"
	"stillpoint/internal/ui/theme"
)

const pageSize = 50

type HistoryPort interface {
	List(ctx context.Context, input practicedto.HistoryListInput) ([]practicedto.HistoryEntry, error)
	Reindex(ctx context.Context) (practicedto.ReindexOutput, error)
}

type LoadedMsg struct {
	Entries []practicedto.HistoryEntry
	Err     error
}

type ReindexedMsg struct {
	Out practicedto.ReindexOutput
	Err error
}

type entryItem struct {
	entry practicedto.HistoryEntry
}

func (i entryItem) Title() string { return i.entry.Title }

func (i entryItem) Description() string {
	outcome := "ended early"
	if i.entry.Natural {
		outcome = "complete"
	}
	return fmt.Sprintf("%s  %s  %d/%d min  +%d karma  %s",
		i.entry.StartedAt.Local().Format("2006-01-02 15:04"),
		i.entry.Emotion,
		i.entry.ActualDurationMinutes,
		i.entry.TargetDurationMinutes,
		i.entry.KarmaPoints,
		outcome)
}

func (i entryItem) FilterValue() string { return i.entry.Title + " " + i.entry.Emotion }

type Model struct {
	port    HistoryPort
	list    list.Model
	spinner spinner.Model
	loading bool
	status  string
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp, loading: port != nil}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Refresh() tea.Cmd {
	port := m.port
	if port == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := port.List(context.Background(), practicedto.HistoryListInput{Limit: pageSize})
		return LoadedMsg{Entries: entries, Err: err}
	}
}

func (m Model) Reindex() tea.Cmd {
	port := m.port
	if port == nil {
		return nil
	}
	return func() tea.Msg {
		out, err := port.Reindex(context.Background())
		return ReindexedMsg{Out: out, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.status = msg.Err.Error()
			return m, nil
		}
		m.status = ""
		items := make([]list.Item, len(msg.Entries))
		for i, entry := range msg.Entries {
			items[i] = entryItem{entry: entry}
		}
		return m, m.list.SetItems(items)

	case ReindexedMsg:
		if msg.Err != nil {
			m.status = "reindex: " + msg.Err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("indexed %d sessions", msg.Out.Indexed)
		return m, m.Refresh()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.port == nil {
		return theme.Pane.Render(theme.Muted.Render("history is kept by the remote stats service"))
	}
	if m.loading {
		return theme.Pane.Render(m.spinner.View() + " loading history…")
	}
	view := m.list.View()
	if m.status != "" {
		view += "\n" + theme.Muted.Render(m.status)
	}
	return view
}
