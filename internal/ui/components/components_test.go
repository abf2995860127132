package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

func TestQuotaBarNotToday(t *testing.T) {
	bar := NewQuotaBar("Checks", 0, 0, 40)
	if got := bar.View(); !strings.Contains(got, "not today") {
		t.Errorf("View() = %q, want it to contain %q", got, "not today")
	}
}

func TestQuotaBarCount(t *testing.T) {
	tests := []struct {
		used, limit int
		want        string
	}{
		{0, 2, "0/2"},
		{1, 2, "1/2"},
		{3, 2, "2/2"},
	}
	for _, tt := range tests {
		got := NewQuotaBar("New", tt.used, tt.limit, 40).View()
		if !strings.Contains(got, tt.want) {
			t.Errorf("View(%d of %d) = %q, want it to contain %q", tt.used, tt.limit, got, tt.want)
		}
	}
}

func TestQuotaBarWidth(t *testing.T) {
	got := lipgloss.Width(NewQuotaBar("New", 1, 2, 40).View())
	if got != 40 {
		t.Errorf("width = %d, want 40", got)
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	var chosen string
	pick := func(label string) func() tea.Cmd {
		return func() tea.Cmd {
			chosen = label
			return nil
		}
	}
	m := NewMenu([]MenuItem{
		{Label: "first", Disabled: true},
		{Label: "second", Action: pick("second")},
		{Label: "third", Disabled: true},
		{Label: "fourth", Action: pick("fourth")},
	})
	if m.Selected != 1 {
		t.Fatalf("Selected = %d, want 1", m.Selected)
	}

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Fatalf("Selected after down = %d, want 3", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if chosen != "fourth" {
		t.Errorf("chosen = %q, want fourth", chosen)
	}
}

func TestTextInputValueIsTrimmed(t *testing.T) {
	in := NewTextInput("type here", 200, 40)
	in.SetValue("  Jeju island  ")
	if got := in.Value(); got != "Jeju island" {
		t.Errorf("Value() = %q, want %q", got, "Jeju island")
	}
	in.Reset()
	if got := in.Value(); got != "" {
		t.Errorf("Value() after Reset = %q, want empty", got)
	}
}

func TestMenuDigitShortcut(t *testing.T) {
	var chosen int
	m := NewMenu([]MenuItem{
		{Label: "yes", Action: func() tea.Cmd { chosen = 1; return nil }},
		{Label: "no", Action: func() tea.Cmd { chosen = 2; return nil }},
	})

	m, _ = m.Update(tea.KeyPressMsg{Code: '2', Text: "2"})
	if chosen != 2 || m.Selected != 1 {
		t.Errorf("after '2': chosen = %d, Selected = %d, want 2, 1", chosen, m.Selected)
	}

	m, _ = m.Update(tea.KeyPressMsg{Code: '9', Text: "9"})
	if m.Selected != 1 {
		t.Errorf("out-of-range digit moved selection to %d", m.Selected)
	}
}
