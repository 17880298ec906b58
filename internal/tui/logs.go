package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/bus"
)

// maxLogBytes bounds the output kept for the watched job.
const maxLogBytes = 1 << 20

// logsPane shows the output of the watched job.
type logsPane struct {
	bus.Base
	focus    paneFocus
	keys     keyMap
	viewport viewport.Model
	jobID    string
	content  string
	follow   bool
}

func newLogsPane(keys keyMap) *logsPane {
	return &logsPane{
		Base:     bus.Base{Name: logsID},
		focus:    paneFocus{id: logsID},
		keys:     keys,
		viewport: viewport.New(defaultWidth, defaultHeight),
		follow:   true,
	}
}

func (p *logsPane) slot() slot    { return slotMain }
func (p *logsPane) visible() bool { return p.focus.shown }

func (p *logsPane) Update(a action.Action) []action.Action {
	p.focus.observe(a)
	switch v := a.(type) {
	case action.WatchLog:
		if v.JobID != p.jobID {
			p.jobID = v.JobID
			p.setContent("")
			p.follow = true
		}
	case action.LogAppended:
		if v.JobID != p.jobID {
			return nil
		}
		content := p.content + v.Text
		if len(content) > maxLogBytes {
			content = content[len(content)-maxLogBytes:]
			if i := strings.IndexByte(content, '\n'); i >= 0 {
				content = content[i+1:]
			}
		}
		p.setContent(content)
	case action.LoggedOut:
		p.jobID = ""
		p.setContent("")
	}
	return nil
}

func (p *logsPane) HandleEvent(a action.Action) []action.Action {
	if !p.focus.shown {
		return nil
	}
	switch v := a.(type) {
	case action.Mouse:
		switch v.Button {
		case "wheel up":
			p.viewport.LineUp(3)
		case "wheel down":
			p.viewport.LineDown(3)
		}
		p.follow = p.viewport.AtBottom()
	case action.Key:
		switch {
		case key.Matches(v, p.keys.Up):
			p.viewport.LineUp(1)
		case key.Matches(v, p.keys.Down):
			p.viewport.LineDown(1)
		case key.Matches(v, p.keys.PageUp):
			p.viewport.PageUp()
		case key.Matches(v, p.keys.PageDown):
			p.viewport.PageDown()
		case key.Matches(v, p.keys.Home):
			p.viewport.GotoTop()
		case key.Matches(v, p.keys.End):
			p.viewport.GotoBottom()
		case key.Matches(v, p.keys.Stop):
			if p.jobID != "" {
				return []action.Action{action.WatchLog{JobID: ""}}
			}
			return nil
		default:
			return nil
		}
		p.follow = p.viewport.AtBottom()
	}
	return nil
}

func (p *logsPane) View(width, height int) string {
	p.viewport.Width = width
	p.viewport.Height = max(height-1, 1)
	if p.follow {
		p.viewport.GotoBottom()
	}

	var title string
	switch {
	case p.jobID == "":
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Output"),
			mutedStyle.Render("Select a job and press l to follow its output."),
		)
	case p.follow:
		title = titleStyle.Render("Output of "+p.jobID) + mutedStyle.Render("  following")
	default:
		title = titleStyle.Render("Output of "+p.jobID) + mutedStyle.Render("  paused, G to resume")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, p.viewport.View())
}

func (p *logsPane) setContent(s string) {
	p.content = s
	p.viewport.SetContent(s)
	if p.follow {
		p.viewport.GotoBottom()
	}
}
