package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
	"github.com/ensigniasec/jobdeck/internal/bus"
)

// Fixed column widths of the jobs table; the name column takes the rest.
const (
	jobIDWidth     = 10
	jobSystemWidth = 12
	jobStateWidth  = 10
	jobAgeWidth    = 10
	minNameWidth   = 12
)

// jobsPane lists jobs and shows details of the selected one.
type jobsPane struct {
	bus.Base
	focus  paneFocus
	keys   keyMap
	table  table.Model
	jobs   []api.Job
	detail *api.Job
	now    func() time.Time
}

func newJobsPane(keys keyMap) *jobsPane {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(accentColor)
	styles.Selected = selectedLine
	t := table.New(
		table.WithColumns(jobColumns(defaultWidth)),
		table.WithFocused(true),
		table.WithStyles(styles),
	)
	return &jobsPane{
		Base:  bus.Base{Name: jobsID},
		focus: paneFocus{id: jobsID, shown: true},
		keys:  keys,
		table: t,
		now:   time.Now,
	}
}

func (p *jobsPane) slot() slot    { return slotMain }
func (p *jobsPane) visible() bool { return p.focus.shown }

func (p *jobsPane) Update(a action.Action) []action.Action {
	p.focus.observe(a)
	switch v := a.(type) {
	case action.JobsRefreshed:
		p.setJobs(v.Jobs)
	case action.JobDetailsLoaded:
		job := v.Job
		p.detail = &job
		for i := range p.jobs {
			if p.jobs[i].ID == job.ID {
				p.jobs[i] = job
			}
		}
		p.setJobs(p.jobs)
	case action.JobCancelled:
		for i := range p.jobs {
			if p.jobs[i].ID == v.JobID {
				p.jobs[i].State = api.JobCancelled
			}
		}
		if p.detail != nil && p.detail.ID == v.JobID {
			p.detail.State = api.JobCancelled
		}
		p.setJobs(p.jobs)
	case action.LoggedOut:
		p.detail = nil
		p.setJobs(nil)
	}
	return nil
}

func (p *jobsPane) HandleEvent(a action.Action) []action.Action {
	k, ok := a.(action.Key)
	if !ok || !p.focus.shown {
		return nil
	}
	switch {
	case key.Matches(k, p.keys.Up):
		p.table.MoveUp(1)
	case key.Matches(k, p.keys.Down):
		p.table.MoveDown(1)
	case key.Matches(k, p.keys.PageUp):
		p.table.MoveUp(p.table.Height())
	case key.Matches(k, p.keys.PageDown):
		p.table.MoveDown(p.table.Height())
	case key.Matches(k, p.keys.Home):
		p.table.GotoTop()
	case key.Matches(k, p.keys.End):
		p.table.GotoBottom()
	case key.Matches(k, p.keys.Enter):
		if job, ok := p.selected(); ok {
			return []action.Action{
				action.SelectJob{JobID: job.ID},
				action.Enqueue{Task: action.GetJobDetails{JobID: job.ID}},
			}
		}
	case key.Matches(k, p.keys.Cancel):
		if job, ok := p.selected(); ok && !finished(job.State) {
			return []action.Action{action.Enqueue{Task: action.CancelJob{JobID: job.ID}}}
		}
	case key.Matches(k, p.keys.Follow):
		if job, ok := p.selected(); ok {
			return []action.Action{
				action.WatchLog{JobID: job.ID},
				action.RequestFocus{Component: logsID, Kind: action.Active},
			}
		}
	}
	return nil
}

func (p *jobsPane) View(width, height int) string {
	p.table.SetColumns(jobColumns(width))
	p.table.SetWidth(width)
	p.table.SetHeight(max(height-detailLines, 1))
	if len(p.jobs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			p.table.View(),
			mutedStyle.Render("No jobs yet. They appear here after the next refresh."),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, p.table.View(), p.detailLine(width))
}

func (p *jobsPane) setJobs(jobs []api.Job) {
	p.jobs = jobs
	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, table.Row{j.ID, j.Name, j.System, string(j.State), age(p.now(), j.SubmittedAt)})
	}
	p.table.SetRows(rows)
	if c := p.table.Cursor(); c >= len(rows) {
		p.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (p *jobsPane) selected() (api.Job, bool) {
	c := p.table.Cursor()
	if c < 0 || c >= len(p.jobs) {
		return api.Job{}, false
	}
	return p.jobs[c], true
}

func (p *jobsPane) detailLine(width int) string {
	job, ok := p.selected()
	if !ok {
		return ""
	}
	if p.detail != nil && p.detail.ID == job.ID {
		job = *p.detail
	}
	line := fmt.Sprintf("%s  %s on %s  %s", job.ID, job.Name, job.System, stateStyle(job.State).Render(string(job.State)))
	if job.WorkDir != "" {
		line += "  " + job.WorkDir
	}
	if job.ExitCode != nil {
		line += fmt.Sprintf("  exit %d", *job.ExitCode)
	}
	if job.StartedAt != nil {
		end := p.now()
		if job.EndedAt != nil {
			end = *job.EndedAt
		}
		line += "  ran " + end.Sub(*job.StartedAt).Truncate(time.Second).String()
	}
	return lipgloss.NewStyle().MaxWidth(width).Render("\n" + line)
}

func jobColumns(width int) []table.Column {
	name := width - jobIDWidth - jobSystemWidth - jobStateWidth - jobAgeWidth - 10
	if name < minNameWidth {
		name = minNameWidth
	}
	return []table.Column{
		{Title: "ID", Width: jobIDWidth},
		{Title: "Name", Width: name},
		{Title: "System", Width: jobSystemWidth},
		{Title: "State", Width: jobStateWidth},
		{Title: "Age", Width: jobAgeWidth},
	}
}

func finished(s api.JobState) bool {
	switch s {
	case api.JobCompleted, api.JobFailed, api.JobCancelled, api.JobTimeout:
		return true
	default:
		return false
	}
}

func stateStyle(s api.JobState) lipgloss.Style {
	switch s {
	case api.JobRunning, api.JobCompleted:
		return lipgloss.NewStyle().Foreground(okColor)
	case api.JobPending:
		return lipgloss.NewStyle().Foreground(dimColor)
	case api.JobTimeout:
		return lipgloss.NewStyle().Foreground(warnColor)
	default:
		return errorStyle
	}
}

// age formats the time since t coarsely.
func age(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
