package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/bus"
)

// frameRenderer lays components out by slot and caches the resulting frame
// for tea's View.
type frameRenderer struct {
	frame  string
	frames int
}

var _ bus.Renderer = (*frameRenderer)(nil)

func (r *frameRenderer) Render(width, height int, components []bus.Component, receives func(action.ComponentID) bool) {
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}
	mainHeight := max(height-headerLines-statusLines, 1)

	var header, main, status string
	var overlay bus.Component
	for _, c := range components {
		p, ok := c.(placed)
		if !ok || !p.visible() {
			continue
		}
		switch p.slot() {
		case slotHeader:
			header = dim(c.View(width, headerLines), receives(c.ID()))
		case slotMain:
			main = dim(c.View(width, mainHeight), receives(c.ID()))
		case slotStatus:
			status = c.View(width, statusLines)
		case slotOverlay:
			// The popup holding focus is drawn on top of any other open one.
			if overlay == nil || receives(c.ID()) {
				overlay = c
			}
		}
	}
	if overlay != nil {
		main = lipgloss.Place(width, mainHeight, lipgloss.Center, lipgloss.Center, overlay.View(width, mainHeight))
	}

	body := lipgloss.NewStyle().Width(width).Height(mainHeight).MaxHeight(mainHeight).Render(main)
	r.frame = lipgloss.JoinVertical(lipgloss.Left, header, body, status)
	r.frames++
}

// View returns the last painted frame.
func (r *frameRenderer) View() string { return r.frame }

func dim(s string, receiving bool) string {
	if receiving {
		return s
	}
	return lipgloss.NewStyle().Faint(true).Render(s)
}
