package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/bus"
)

// notice is one queued notification.
type notice struct {
	message    string
	url        string
	suggestion string
	isErr      bool
}

// noticePopup shows Info and Error actions one at a time and holds exclusive
// focus while any are queued. Notifications are collected by a hook so that
// none are lost while another popup holds exclusive focus.
type noticePopup struct {
	bus.Base
	keys  keyMap
	queue []notice
	shown bool
}

func newNoticePopup(keys keyMap) *noticePopup {
	return &noticePopup{Base: bus.Base{Name: noticeID}, keys: keys}
}

func (p *noticePopup) slot() slot    { return slotOverlay }
func (p *noticePopup) visible() bool { return p.shown && len(p.queue) > 0 }

// collect is registered as a driver hook.
func (p *noticePopup) collect(a action.Action) []action.Action {
	switch v := a.(type) {
	case action.Info:
		return p.push(notice{message: v.Message, url: v.URL})
	case action.Error:
		return p.push(notice{message: v.Message, suggestion: v.Suggestion, isErr: true})
	case action.LoggedIn:
		// The verification prompt is obsolete once the login completed.
		kept := p.queue[:0]
		for _, n := range p.queue {
			if n.url == "" {
				kept = append(kept, n)
			}
		}
		p.queue = kept
		return p.push(notice{message: "Logged in."})
	case action.Dismiss:
		return p.dismiss()
	}
	return nil
}

func (p *noticePopup) HandleEvent(a action.Action) []action.Action {
	k, ok := a.(action.Key)
	if !ok || !p.visible() {
		return nil
	}
	if key.Matches(k, p.keys.Enter) || key.Matches(k, p.keys.Escape) {
		return p.dismiss()
	}
	return nil
}

func (p *noticePopup) push(n notice) []action.Action {
	p.queue = append(p.queue, n)
	if p.shown {
		return nil
	}
	p.shown = true
	return []action.Action{action.RequestFocus{Component: noticeID, Kind: action.Exclusive}}
}

func (p *noticePopup) dismiss() []action.Action {
	if len(p.queue) > 0 {
		p.queue = p.queue[1:]
	}
	if len(p.queue) > 0 || !p.shown {
		return nil
	}
	p.shown = false
	return []action.Action{action.ReleaseFocus{Component: noticeID}}
}

func (p *noticePopup) View(width, _ int) string {
	if !p.visible() {
		return ""
	}
	n := p.queue[0]
	inner := min(width-4, popupMaxWidth)
	title, border := titleStyle.Render("Info"), accentColor
	if n.isErr {
		title, border = errorStyle.Bold(true).Render("Error"), errColor
	}
	text := lipgloss.NewStyle().Width(inner)
	lines := []string{title, "", text.Render(n.message)}
	if n.url != "" {
		lines = append(lines, "", text.Underline(true).Foreground(accentColor).Render(n.url))
	}
	if n.suggestion != "" {
		lines = append(lines, "", text.Foreground(mutedColor).Render(n.suggestion))
	}
	footer := "enter/esc: dismiss"
	if more := len(p.queue) - 1; more > 0 {
		footer += fmt.Sprintf(" (%d more)", more)
	}
	lines = append(lines, "", mutedStyle.Render(footer))
	return popupFrame(border).Render(strings.Join(lines, "\n"))
}

// helpPopup lists the key bindings.
type helpPopup struct {
	bus.Base
	keys  keyMap
	shown bool
}

func newHelpPopup(keys keyMap) *helpPopup {
	return &helpPopup{Base: bus.Base{Name: helpID}, keys: keys}
}

func (p *helpPopup) slot() slot    { return slotOverlay }
func (p *helpPopup) visible() bool { return p.shown }

func (p *helpPopup) HandleEvent(a action.Action) []action.Action {
	k, ok := a.(action.Key)
	if !ok {
		return nil
	}
	if !p.shown {
		if key.Matches(k, p.keys.Help) {
			p.shown = true
			return []action.Action{action.RequestFocus{Component: helpID, Kind: action.Exclusive}}
		}
		return nil
	}
	if key.Matches(k, p.keys.Help) || key.Matches(k, p.keys.Escape) || key.Matches(k, p.keys.Quit) {
		p.shown = false
		return []action.Action{action.ReleaseFocus{Component: helpID}}
	}
	return nil
}

func (p *helpPopup) View(width, _ int) string {
	if !p.shown {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	for _, g := range p.keys.helpGroups() {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(g.title))
		for _, kb := range g.bindings {
			h := kb.Help()
			fmt.Fprintf(&b, "\n  %-10s %s", h.Key, mutedStyle.Render(h.Desc))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("?/esc: close"))
	return popupFrame(accentColor).MaxWidth(min(width, popupMaxWidth+4)).Render(b.String())
}

func popupFrame(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}
