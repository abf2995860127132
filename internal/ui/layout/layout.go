// Package layout draws the frame around every screen: a header naming the
// screen and the participant's status, the screen body, and a footer of
// key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/memoir/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Frame describes the chrome around a screen body.
type Frame struct {
	Title  string
	Status string
	Hints  []KeyHint
}

// Render draws the frame at width x height. body is called with the space
// left between header and footer. Terminals below MinWidth x MinHeight get
// a resize message instead.
func (f Frame) Render(width, height int, body func(w, h int) string) string {
	if IsTooSmall(width, height) {
		return RenderMinSizeMessage(width, height)
	}
	header := RenderHeader(f.Title, f.Status, width)
	footer := RenderFooter(f.Hints, width)
	h := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	content := lipgloss.NewStyle().Width(width).Height(h).Render(body(width, h))
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the participant to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Body.Render(fmt.Sprintf(
			"Please make this window bigger.\n\nIt needs at least %d x %d,\nand is now %d x %d.",
			MinWidth, MinHeight, width, height,
		)))
}

var bar = lipgloss.NewStyle().
	Background(theme.BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.Border)

// RenderHeader renders the app name on the left, title in the middle and
// status on the right.
func RenderHeader(title, status string, width int) string {
	left := theme.Selected.Render("  Memoir")
	center := theme.Body.Render(title)
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(status + "  ")

	inner := max(width-2, 0)
	lw, cw, rw := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(right)
	leftGap := max((inner-cw)/2-lw, 1)
	rightGap := max(inner-lw-leftGap-cw-rw, 1)

	return bar.Width(width).Render(left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right)
}

// RenderFooter renders the key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) + " " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
	}
	return bar.Width(width).Render("  " + strings.Join(parts, "   "))
}
