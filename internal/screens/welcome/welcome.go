package welcome

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/memoir/internal/router"
	"github.com/abhisek/memoir/internal/screen"
	"github.com/abhisek/memoir/internal/ui/theme"
)

const tickInterval = 120 * time.Millisecond

// frameArt develops one row per tick, like a print in a tray.
var frameArt = []string{
	"╭───────────────╮",
	"│ ┌───────────┐ │",
	"│ │    ☀      │ │",
	"│ │   ╱╲  ╱╲  │ │",
	"│ │  ╱  ╲╱  ╲ │ │",
	"│ │ ~~~~~~~~~ │ │",
	"│ └───────────┘ │",
	"╰───────────────╯",
}

// The banner and greeting appear once the picture has developed, and the
// animation stops a few ticks after that.
var (
	bannerTick = len(frameArt) + 2
	doneTick   = bannerTick + 4
)

type tickMsg time.Time

// WelcomeScreen greets the participant before their home screen.
type WelcomeScreen struct {
	name         string
	homeFactory  func() screen.Screen
	ticks        int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen for name that hands over to the screen
// produced by homeFactory on the first keypress.
func New(name string, homeFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{name: name, homeFactory: homeFactory}
}

func (w *WelcomeScreen) Title() string { return "" }

func (w *WelcomeScreen) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.ticks >= doneTick {
			return w, nil
		}
		w.ticks++
		return w, tick()
	case tea.KeyPressMsg:
		return w, w.transition()
	}
	return w, nil
}

// developed reports whether the full picture, banner and greeting are shown.
func (w *WelcomeScreen) developed() bool { return w.ticks >= bannerTick }

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.homeFactory()
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (w *WelcomeScreen) View(width, height int) string {
	rows := min(w.ticks, len(frameArt))
	picture := make([]string, len(frameArt))
	for i := range frameArt {
		if i < rows {
			picture[i] = frameArt[i]
		} else {
			picture[i] = strings.Repeat(" ", lipgloss.Width(frameArt[i]))
		}
	}
	sections := []string{lipgloss.NewStyle().Foreground(theme.Primary).Render(strings.Join(picture, "\n"))}

	if w.developed() {
		sections = append(sections,
			"",
			RenderBanner(width),
			"",
			theme.Title.Render(greeting(w.name)),
			theme.Subtitle.Render("Let's remember together."),
			"",
			theme.Hint.Render("press any key to continue"),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func greeting(name string) string {
	if name == "" {
		return "Welcome back"
	}
	return fmt.Sprintf("Welcome back, %s", name)
}
