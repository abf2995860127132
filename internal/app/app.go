// Package app hosts the Bubble Tea program for a participant's check-in.
package app

import (
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/memoir/internal/router"
	"github.com/abhisek/memoir/internal/screen"
	"github.com/abhisek/memoir/internal/screens/home"
	"github.com/abhisek/memoir/internal/screens/welcome"
	"github.com/abhisek/memoir/internal/store"
	"github.com/abhisek/memoir/internal/ui/layout"
)

// Options configures the program.
type Options struct {
	Service home.Service
	User    store.User

	// Now overrides the clock, mostly for tests.
	Now func() time.Time

	// SkipWelcome starts on the home screen.
	SkipWelcome bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	homeFactory := func() screen.Screen {
		return home.New(opts.Service, opts.User, opts.Now)
	}
	var first screen.Screen
	if opts.SkipWelcome {
		first = homeFactory()
	} else {
		first = welcome.New(opts.User.Name, homeFactory)
	}
	return AppModel{router: router.New(first)}
}

func (m AppModel) Init() tea.Cmd {
	if a := m.router.Active(); a != nil {
		return a.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if bi, ok := m.router.Active().(screen.BackInterceptor); ok && bi.InterceptsBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	active := m.router.Active()
	frame := layout.Frame{
		Hints: []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		},
	}
	if active != nil {
		frame.Title = active.Title()
	}
	if sp, ok := active.(screen.StatusProvider); ok {
		frame.Status = sp.Status()
	}
	if kp, ok := active.(screen.KeyHintProvider); ok {
		frame.Hints = kp.KeyHints()
	} else if m.router.Depth() > 1 {
		frame.Hints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	v.SetContent(frame.Render(m.width, m.height, m.router.View))
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
