// Package home is the participant's landing screen.
package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/memoir/internal/router"
	"github.com/abhisek/memoir/internal/schedule"
	"github.com/abhisek/memoir/internal/screen"
	"github.com/abhisek/memoir/internal/screens/checkin"
	"github.com/abhisek/memoir/internal/screens/progress"
	"github.com/abhisek/memoir/internal/session"
	"github.com/abhisek/memoir/internal/store"
	"github.com/abhisek/memoir/internal/ui/components"
	"github.com/abhisek/memoir/internal/ui/theme"
)

// Service is what the home screen and the screens it opens need.
type Service interface {
	checkin.Service
	progress.Service
	GetPhaseInfo(ctx context.Context, userID int64, today time.Time) (session.PhaseInfo, error)
}

type phaseMsg struct {
	Info session.PhaseInfo
	Err  error
}

// HomeScreen greets the participant and shows today's quota.
type HomeScreen struct {
	svc  Service
	user store.User
	now  func() time.Time

	info   *session.PhaseInfo
	errMsg string
	menu   components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)
var _ screen.StatusProvider = (*HomeScreen)(nil)

// New creates a HomeScreen for u. A nil now uses time.Now.
func New(svc Service, u store.User, now func() time.Time) *HomeScreen {
	if now == nil {
		now = time.Now
	}
	h := &HomeScreen{svc: svc, user: u, now: now}
	h.menu = components.NewMenu([]components.MenuItem{
		{Label: "Today's check-in", Action: func() tea.Cmd {
			return push(checkin.New(svc, u.ID, now))
		}},
		{Label: "My progress", Action: func() tea.Cmd {
			return push(progress.New(svc, u.ID, now))
		}},
		{Label: "Exit", Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.Refresh()
}

// Refresh reloads today's phase and quota.
func (h *HomeScreen) Refresh() tea.Cmd {
	svc, id, today := h.svc, h.user.ID, store.Day(h.now())
	return func() tea.Msg {
		info, err := svc.GetPhaseInfo(context.Background(), id, today)
		return phaseMsg{Info: info, Err: err}
	}
}

func (h *HomeScreen) Title() string {
	return "Home"
}

// Status is the header summary of today's quota.
func (h *HomeScreen) Status() string {
	if h.info == nil {
		return ""
	}
	return fmt.Sprintf("%s · day %d", h.info.Phase.Name, h.info.DaysSinceDiagnosis+1)
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(phaseMsg); ok {
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.info = &msg.Info
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(width-8, 64)

	var sections []string
	sections = append(sections,
		theme.Title.Width(cw).Render("Hello, "+h.user.Name),
		theme.Subtitle.Width(cw).Render(h.now().Format("Monday, January 2")),
	)

	switch {
	case h.errMsg != "":
		sections = append(sections, theme.Fail.Render(h.errMsg))
	case h.info != nil:
		sections = append(sections, renderQuota(*h.info, cw))
	}

	sections = append(sections, h.menu.View())

	content := theme.Card.Width(cw + 4).Render(strings.Join(sections, "\n\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func renderQuota(info session.PhaseInfo, width int) string {
	lines := []string{
		components.NewQuotaBar("New memories ", info.NewToday, info.Phase.MaxNewQuestionsPerDay, width).View(),
		components.NewQuotaBar("Memory checks", info.ChecksToday, info.Phase.MaxMemoryChecksPerDay, width).View(),
	}
	if info.Phase.Name == schedule.PhaseInitial {
		lines = append(lines, theme.Hint.Render("Memory checks begin after the first month."))
	}
	return strings.Join(lines, "\n")
}
