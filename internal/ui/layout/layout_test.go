package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestFrameFillsTerminal(t *testing.T) {
	f := Frame{Title: "Check-in", Status: "initial · day 3", Hints: []KeyHint{{Key: "Esc", Description: "Back"}}}

	var gotW, gotH int
	out := f.Render(100, 30, func(w, h int) string {
		gotW, gotH = w, h
		return "body"
	})

	if gotW != 100 {
		t.Errorf("body width = %d, want 100", gotW)
	}
	if gotH <= 0 || gotH >= 30 {
		t.Errorf("body height = %d, want between header and footer", gotH)
	}
	if h := lipgloss.Height(out); h != 30 {
		t.Errorf("frame height = %d, want 30", h)
	}
	for _, want := range []string{"Memoir", "Check-in", "initial · day 3", "Esc", "body"} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q", want)
		}
	}
}

func TestFrameTooSmall(t *testing.T) {
	called := false
	out := Frame{}.Render(60, 20, func(int, int) string {
		called = true
		return ""
	})
	if called {
		t.Error("body rendered on a terminal below the minimum size")
	}
	if !strings.Contains(out, "bigger") {
		t.Errorf("out = %q, want resize message", out)
	}
}
