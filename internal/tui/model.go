package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ensigniasec/jobdeck/internal/action"
)

// Model adapts the driver to Bubble Tea. Terminal messages become actions, and
// every message runs one driver step.
type Model struct {
	app *App
	ctx context.Context //nolint:containedctx // bounds the bus listener command.
}

// Model returns the tea.Model of a. ctx stops the bus listener.
func (a *App) Model(ctx context.Context) Model {
	return Model{app: a, ctx: ctx}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	m.app.driver.Push(action.Resize{Width: defaultWidth, Height: defaultHeight})
	return tea.Batch(
		m.listen(),
		m.tick(),
		m.frame(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { // nolint:ireturn
	d := m.app.driver
	var cmds []tea.Cmd

	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		d.Push(action.Resize{Width: x.Width, Height: x.Height})
	case tea.KeyMsg:
		d.Push(action.Key{Code: x.String()})
	case tea.MouseMsg:
		d.Push(action.Mouse{X: x.X, Y: x.Y, Button: mouseButton(x.Button)})
	case tea.ResumeMsg:
		d.Push(action.Resume{})
	case tickMsg:
		d.Push(action.Tick{})
		cmds = append(cmds, m.tick())
	case frameMsg:
		d.Push(action.Render{})
		cmds = append(cmds, m.frame())
	case wakeMsg:
		cmds = append(cmds, m.listen())
	}

	wasSuspended := d.Suspended()
	d.Step()
	switch {
	case d.ShouldQuit():
		return m, tea.Quit
	case d.Suspended() && !wasSuspended:
		cmds = append(cmds, tea.Suspend)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.app.driver.ShouldQuit() {
		return "Shutting down...\n"
	}
	return m.app.renderer.View()
}

func mouseButton(b tea.MouseButton) string {
	switch b {
	case tea.MouseButtonLeft:
		return "left"
	case tea.MouseButtonMiddle:
		return "middle"
	case tea.MouseButtonRight:
		return "right"
	case tea.MouseButtonWheelUp:
		return "wheel up"
	case tea.MouseButtonWheelDown:
		return "wheel down"
	case tea.MouseButtonWheelLeft:
		return "wheel left"
	case tea.MouseButtonWheelRight:
		return "wheel right"
	default:
		return "none"
	}
}

// listen waits until ports queue actions on the bus.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		if err := m.app.bus.Wait(m.ctx); err != nil {
			return nil
		}
		return wakeMsg{}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.tickRate, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(m.app.frameRate, func(time.Time) tea.Msg { return frameMsg{} })
}
