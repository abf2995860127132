package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/memoir/internal/ui/theme"
)

// QuotaBar shows how much of a daily allowance has been used.
type QuotaBar struct {
	Label string
	Used  int
	Limit int
	Width int
}

// NewQuotaBar creates a quota bar for used of limit.
func NewQuotaBar(label string, used, limit, width int) QuotaBar {
	return QuotaBar{Label: label, Used: used, Limit: limit, Width: width}
}

// View renders the bar. A zero limit renders as "not today".
func (q QuotaBar) View() string {
	label := lipgloss.NewStyle().Foreground(theme.Text).Render(q.Label) + "  "
	if q.Limit <= 0 {
		return label + lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("not today")
	}

	count := fmt.Sprintf("  %d/%d", min(q.Used, q.Limit), q.Limit)
	barWidth := max(q.Width-lipgloss.Width(label)-len(count), 4)

	filled := min(barWidth*q.Used/q.Limit, barWidth)
	filled = max(filled, 0)

	bar := lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))

	return label + bar + lipgloss.NewStyle().Foreground(theme.TextDim).Render(count)
}
