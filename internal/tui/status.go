package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
	"github.com/ensigniasec/jobdeck/internal/bus"
)

const progressWidth = 20

// taskStatus is the last progress report of a background task.
type taskStatus struct {
	id      string
	message string
	percent float64
	idle    int
	done    bool
}

// statusBar is the permanently focused bottom line: background tasks, system
// health and the last ad hoc event.
type statusBar struct {
	bus.Base
	inactive  bool
	tasks     []*taskStatus
	jobs      int
	running   int
	systems   []api.System
	lastEvent string
	frame     int
	bar       progress.Model
}

func newStatusBar() *statusBar {
	return &statusBar{
		Base: bus.Base{Name: statusID},
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
	}
}

func (s *statusBar) slot() slot    { return slotStatus }
func (s *statusBar) visible() bool { return true }

func (s *statusBar) Update(a action.Action) []action.Action {
	switch v := a.(type) {
	case action.FocusChanged:
		if v.Component == statusID {
			s.inactive = v.Kind == action.PermanentInactive
		}
	case action.Tick:
		s.frame++
		s.expire()
	case action.Progress:
		t := s.task(v.TaskID)
		t.message = v.Message
		t.percent = v.Percent
		t.idle = 0
		t.done = v.Percent >= 100
	case action.TaskFailed:
		s.drop(v.TaskID)
		s.lastEvent = "failed: " + v.Message
	case action.FileDownloaded:
		s.lastEvent = fmt.Sprintf("saved %s (%s)", v.Local, humanSize(v.Bytes))
	case action.JobCancelled:
		s.lastEvent = "cancelled job " + v.JobID
	case action.JobsRefreshed:
		s.jobs = len(v.Jobs)
		s.running = 0
		for _, j := range v.Jobs {
			if j.State == api.JobRunning {
				s.running++
			}
		}
	case action.SystemsRefreshed:
		s.systems = v.Systems
	case action.UserEvent:
		s.lastEvent = v.Name
		if v.Payload != "" {
			s.lastEvent += ": " + v.Payload
		}
	case action.LoggedOut:
		s.jobs, s.running, s.systems = 0, 0, nil
	}
	return nil
}

func (s *statusBar) View(width, _ int) string {
	left := s.taskView()
	if left == "" {
		left = mutedStyle.Render(s.lastEvent)
	}
	right := fmt.Sprintf("%s  %d jobs, %d running  ? help", s.systemsView(), s.jobs, s.running)
	line := padBetween(left, mutedStyle.Render(right), width)
	if s.inactive {
		return mutedStyle.Faint(true).Render(line)
	}
	return line
}

func (s *statusBar) taskView() string {
	var active *taskStatus
	for _, t := range s.tasks {
		if !t.done {
			active = t
			break
		}
	}
	if active == nil && len(s.tasks) > 0 {
		active = s.tasks[len(s.tasks)-1]
	}
	if active == nil {
		return ""
	}
	frames := spinner.Dot.Frames
	glyph := frames[s.frame%len(frames)]
	if active.done {
		glyph = "✓"
	}
	var b strings.Builder
	b.WriteString(glyph)
	b.WriteString(" ")
	b.WriteString(active.message)
	if active.percent >= 0 {
		b.WriteString(" ")
		b.WriteString(s.bar.ViewAs(min(active.percent, 100) / 100))
	}
	if n := s.pending(); n > 1 {
		fmt.Fprintf(&b, " (+%d)", n-1)
	}
	return b.String()
}

func (s *statusBar) systemsView() string {
	if len(s.systems) == 0 {
		return ""
	}
	up := 0
	for _, sys := range s.systems {
		if strings.EqualFold(sys.Status, "available") || strings.EqualFold(sys.Status, "up") {
			up++
		}
	}
	return fmt.Sprintf("%d/%d systems up", up, len(s.systems))
}

func (s *statusBar) task(id string) *taskStatus {
	for _, t := range s.tasks {
		if t.id == id {
			return t
		}
	}
	t := &taskStatus{id: id}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *statusBar) drop(id string) {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.id != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
}

// expire ages every task and removes finished or silent ones.
func (s *statusBar) expire() {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		t.idle++
		if t.done && t.idle > finishedTaskTicks {
			continue
		}
		if t.idle > staleTaskTicks {
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
}

func (s *statusBar) pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.done {
			n++
		}
	}
	return n
}
