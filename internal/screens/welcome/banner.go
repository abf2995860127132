package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/memoir/internal/ui/theme"
)

const bannerArt = `
 ███╗   ███╗███████╗███╗   ███╗ ██████╗ ██╗██████╗
 ████╗ ████║██╔════╝████╗ ████║██╔═══██╗██║██╔══██╗
 ██╔████╔██║█████╗  ██╔████╔██║██║   ██║██║██████╔╝
 ██║╚██╔╝██║██╔══╝  ██║╚██╔╝██║██║   ██║██║██╔══██╗
 ██║ ╚═╝ ██║███████╗██║ ╚═╝ ██║╚██████╔╝██║██║  ██║
 ╚═╝     ╚═╝╚══════╝╚═╝     ╚═╝ ╚═════╝ ╚═╝╚═╝  ╚═╝`

const bannerCompact = "M E M O I R"

// RenderBanner returns the MEMOIR banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 54 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 54 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
