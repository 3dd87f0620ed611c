package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stillpoint/internal/ui/theme"
)

// PaletteSubmitMsg carries the trimmed command line the user confirmed.
type PaletteSubmitMsg struct{ Input string }

type PaletteCancelMsg struct{}

type Command struct {
	Name  string
	Args  string
	Usage string
}

// Commands must match the cases handled by app.Model.executePalette.
var Commands = []Command{
	{Name: "emotion", Args: "<name>", Usage: "match content to a mood"},
	{Name: "duration", Args: "<1-10>", Usage: "session length in minutes"},
	{Name: "start", Usage: "begin the countdown"},
	{Name: "end", Usage: "finish early with a partial reward"},
	{Name: "ack", Usage: "dismiss the reward"},
	{Name: "history:refresh", Usage: "reload past sessions"},
	{Name: "history:reindex", Usage: "rebuild the index from journal notes"},
}

var (
	frame = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Peach).
		Padding(0, 1)
	nameStyle  = lipgloss.NewStyle().Foreground(theme.Lavender)
	usageStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// Palette is a one-line command prompt. Tab completes the command name.
type Palette struct {
	input textinput.Model
	open  bool
	width int
}

func NewPalette() Palette {
	input := textinput.New()
	input.Prompt = ": "
	input.Placeholder = "command"
	input.CharLimit = 64
	return Palette{input: input}
}

func (p Palette) Visible() bool { return p.open }

func (p *Palette) Open() tea.Cmd {
	p.open = true
	p.input.Reset()
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.open {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			p.dismiss()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case tea.KeyEnter:
			line := strings.TrimSpace(p.input.Value())
			p.dismiss()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: line} }
		case tea.KeyTab:
			if matches := p.matches(); len(matches) > 0 {
				p.input.SetValue(matches[0].Name + " ")
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) dismiss() {
	p.open = false
	p.input.Blur()
}

// matches returns the commands whose name starts with the typed word.
func (p Palette) matches() []Command {
	word, _, _ := strings.Cut(strings.TrimLeft(strings.ToLower(p.input.Value()), " "), " ")
	out := []Command{}
	for _, command := range Commands {
		if strings.HasPrefix(command.Name, word) {
			out = append(out, command)
		}
	}
	return out
}

func (p Palette) View() string {
	if !p.open {
		return ""
	}
	lines := []string{p.input.View(), ""}
	for _, command := range p.matches() {
		signature := command.Name
		if command.Args != "" {
			signature += " " + command.Args
		}
		lines = append(lines, nameStyle.Render(signature)+"  "+usageStyle.Render(command.Usage))
	}
	width := p.width
	if width < 24 {
		width = 56
	}
	return frame.Width(width - 2).Render(strings.Join(lines, "\n"))
}
