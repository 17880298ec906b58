package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/bus"
)

// header shows the tabs and the login state.
type header struct {
	bus.Base
	session *session
}

func newHeader(s *session) *header {
	return &header{Base: bus.Base{Name: headerID}, session: s}
}

func (h *header) slot() slot    { return slotHeader }
func (h *header) visible() bool { return true }

func (h *header) View(width, _ int) string {
	tabs := make([]string, 0, len(mainPanes))
	for i, id := range mainPanes {
		label := string(rune('1'+i)) + " " + paneTitle(id)
		if id == h.session.pane {
			tabs = append(tabs, lipgloss.NewStyle().Foreground(accentColor).Bold(true).Underline(true).Render(label))
			continue
		}
		tabs = append(tabs, mutedStyle.Render(label))
	}
	left := titleStyle.Render("jobdeck") + "  " + strings.Join(tabs, "  ")
	return padBetween(left, loginBadge(h.session.loggedIn), width)
}

func loginBadge(loggedIn bool) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if loggedIn {
		return style.Foreground(okColor).Render("LOGGED IN")
	}
	return style.Foreground(warnColor).Render("LOGGED OUT • L to log in")
}

func paneTitle(id action.ComponentID) string {
	switch id {
	case jobsID:
		return "Jobs"
	case filesID:
		return "Files"
	case logsID:
		return "Logs"
	default:
		return string(id)
	}
}
