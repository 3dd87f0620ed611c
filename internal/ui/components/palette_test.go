package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(p Palette, text string) Palette {
	for _, r := range text {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return p
}

func TestPaletteSubmitsTrimmedInput(t *testing.T) {
	p := NewPalette()
	p.Open()
	p = typeText(p, " duration 7 ")
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatalf("palette should close on enter")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "duration 7" {
		t.Fatalf("unexpected submit %#v", msg)
	}
}

func TestPaletteTabCompletes(t *testing.T) {
	p := NewPalette()
	p.Open()
	p = typeText(p, "hist")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if msg := cmd().(PaletteSubmitMsg); msg.Input != "history:refresh" {
		t.Fatalf("expected completion to history:refresh, got %q", msg.Input)
	}
}

func TestPaletteEscapeCancels(t *testing.T) {
	p := NewPalette()
	p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatalf("palette should close on esc")
	}
	if _, ok := cmd().(PaletteCancelMsg); !ok {
		t.Fatalf("expected cancel message")
	}
}
