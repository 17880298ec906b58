package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/jobdeck/internal/action"
)

// slot is the screen region a component is drawn in.
type slot int

const (
	slotHeader slot = iota
	slotMain
	slotStatus
	slotOverlay
)

// placed is implemented by every component the renderer knows how to lay out.
type placed interface {
	slot() slot
	visible() bool
}

// session is state shared by the hook and the header. It is only touched on
// the driver goroutine.
type session struct {
	loggedIn bool
	pane     action.ComponentID
}

// paneFocus tracks whether a main pane is the selected tab.
type paneFocus struct {
	id    action.ComponentID
	shown bool
}

// observe updates the tab state from a focus notification and reports whether
// the pane has just become visible.
func (p *paneFocus) observe(a action.Action) bool {
	fc, ok := a.(action.FocusChanged)
	if !ok {
		return false
	}
	switch {
	case fc.Component == p.id && (fc.Kind == action.Active || fc.Kind == action.Exclusive):
		gained := !p.shown
		p.shown = true
		return gained
	case fc.Component != p.id && isMainPane(fc.Component) && fc.Kind == action.Active:
		p.shown = false
	}
	return false
}

// Shared styles.
//
//nolint:gochecknoglobals // immutable styles.
var (
	accentColor  = lipgloss.Color("69")
	okColor      = lipgloss.Color("46")
	warnColor    = lipgloss.Color("208")
	errColor     = lipgloss.Color("196")
	mutedColor   = lipgloss.Color("241")
	dimColor     = lipgloss.Color("240")
	titleStyle   = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errColor)
	selectedLine = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
)

// padBetween joins left and right with spaces so the line spans width.
func padBetween(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}
