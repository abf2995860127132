// Package progress shows a participant's running totals.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/memoir/internal/router"
	"github.com/abhisek/memoir/internal/screen"
	"github.com/abhisek/memoir/internal/session"
	"github.com/abhisek/memoir/internal/store"
	"github.com/abhisek/memoir/internal/ui/layout"
	"github.com/abhisek/memoir/internal/ui/theme"
)

// Service reads participant statistics.
type Service interface {
	GetStats(ctx context.Context, userID int64, today time.Time) (*session.Stats, error)
}

type statsMsg struct {
	Stats *session.Stats
	Err   error
}

// Screen displays session.Stats.
type Screen struct {
	svc    Service
	userID int64
	now    func() time.Time

	stats  *session.Stats
	errMsg string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a progress screen. A nil now uses time.Now.
func New(svc Service, userID int64, now func() time.Time) *Screen {
	if now == nil {
		now = time.Now
	}
	return &Screen{svc: svc, userID: userID, now: now}
}

func (s *Screen) Init() tea.Cmd {
	svc, id, today := s.svc, s.userID, store.Day(s.now())
	return func() tea.Msg {
		st, err := svc.GetStats(context.Background(), id, today)
		return statsMsg{Stats: st, Err: err}
	}
}

func (s *Screen) Title() string {
	return "My progress"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Back"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		s.stats, s.errMsg = msg.Stats, ""
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	var body string
	switch {
	case s.errMsg != "":
		body = theme.Fail.Render(s.errMsg)
	case s.stats == nil:
		body = theme.Hint.Render("Loading...")
	default:
		body = renderStats(s.stats)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Card.Render(body))
}

func renderStats(st *session.Stats) string {
	row := func(label string, v any) string {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Width(24).Render(label) +
			theme.Body.Render(fmt.Sprint(v))
	}

	last := "never"
	if !st.Progress.LastActivityDate.IsZero() {
		last = st.Progress.LastActivityDate.Format(store.DayLayout)
	}

	rows := []string{
		theme.Title.Render(st.User.Name),
		"",
		row("Phase", fmt.Sprintf("%s (day %d)", st.Phase.Phase.Name, st.Phase.DaysSinceDiagnosis+1)),
		row("Memories shared", st.Progress.TotalInitialAnswered),
		row("Memory checks done", st.Progress.TotalChecksCompleted),
		row("Last visit", last),
		"",
		row("Questions still in play", st.Active),
		row("Remembered at least once", st.Reusable),
		row("Retired", st.Archived),
	}
	return strings.Join(rows, "\n")
}
