package bus

import (
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/focus"
)

// maxDerivedPerStep caps the actions components may derive within one step.
// A component that answers every action with another one would otherwise spin forever.
const maxDerivedPerStep = 4096

// Driver is the only consumer of a Bus. Each Step drains the queued actions,
// lets the focus manager, hooks and mounted components react in FIFO order,
// and paints at most once.
type Driver struct {
	bus        *Bus
	focus      *focus.Manager
	renderer   Renderer
	components []Component
	hooks      []Hook
	pending    []action.Action

	width, height int
	quit          bool
	suspended     bool
}

// NewDriver returns a Driver consuming b. renderer may be nil.
func NewDriver(b *Bus, fm *focus.Manager, renderer Renderer) *Driver {
	return &Driver{bus: b, focus: fm, renderer: renderer}
}

// Mount adds c to the component list. Components receive actions and are
// rendered in mount order.
func (d *Driver) Mount(c Component) { d.components = append(d.components, c) }

// Hook registers h. Hooks run in registration order, after the focus manager
// and before the components.
func (d *Driver) Hook(h Hook) { d.hooks = append(d.hooks, h) }

// Push queues actions produced on the driver goroutine, such as terminal input.
// They are processed by the next Step.
func (d *Driver) Push(actions ...action.Action) { d.pending = append(d.pending, actions...) }

// Focus returns the focus manager.
func (d *Driver) Focus() *focus.Manager { return d.focus }

// Components returns the mounted components in mount order.
func (d *Driver) Components() []Component { return d.components }

// ShouldQuit reports whether a Quit action has been processed.
func (d *Driver) ShouldQuit() bool { return d.quit }

// Suspended reports whether the terminal has been handed back to the shell.
func (d *Driver) Suspended() bool { return d.suspended }

// Size returns the last dimensions seen in a Resize action.
func (d *Driver) Size() (width, height int) { return d.width, d.height }

// Step runs one drain pass and reports whether a frame was painted.
//
// Actions already queued are processed first, in arrival order. Actions derived
// while processing are appended to the same pass. Several Render-class actions
// collapse into a single paint after the pass.
func (d *Driver) Step() bool {
	queue := d.pending
	d.pending = nil
	queue = d.bus.drain(queue)
	if len(queue) == 0 {
		return false
	}

	limit := len(queue) + maxDerivedPerStep
	render := false
	for i := 0; i < len(queue); i++ {
		if i == limit {
			logrus.WithField("dropped", len(queue)-i).Warn("driver: derived action limit reached, dropping remainder of pass")
			break
		}
		derived, paint := d.dispatch(queue[i])
		render = render || paint
		queue = append(queue, derived...)
	}

	if !render || d.suspended || d.quit {
		return false
	}
	if d.renderer != nil {
		d.renderer.Render(d.width, d.height, d.components, d.focus.ShouldReceiveEvent)
	}
	return true
}

func (d *Driver) dispatch(a action.Action) ([]action.Action, bool) {
	var out []action.Action
	render := false

	switch v := a.(type) {
	case action.Quit:
		d.quit = true
	case action.Suspend:
		d.suspended = true
	case action.Resume:
		d.suspended = false
		render = true
	case action.Render:
		render = true
	case action.Resize:
		d.width, d.height = v.Width, v.Height
		render = true
	case action.RequestFocus:
		if changed, ok := d.focus.RequestFocus(v.Component, v.Kind); ok {
			out = append(out, changed)
		}
	case action.ReleaseFocus:
		out = append(out, d.focus.ReleaseFocus(v.Component))
	case action.FocusChanged:
		render = true
	}

	for _, h := range d.hooks {
		out = append(out, h(a)...)
	}

	input := action.IsInput(a)
	for _, c := range d.components {
		if !d.receives(c.ID(), a) {
			continue
		}
		if input {
			out = append(out, c.HandleEvent(a)...)
		} else {
			out = append(out, c.Update(a)...)
		}
	}
	return out, render
}

// receives applies the focus gate. Focus notifications always reach the
// component they name and layout changes reach everyone.
func (d *Driver) receives(id action.ComponentID, a action.Action) bool {
	switch v := a.(type) {
	case action.FocusChanged:
		return v.Component == id || d.focus.ShouldReceiveEvent(id)
	case action.Resize:
		return true
	default:
		return d.focus.ShouldReceiveEvent(id)
	}
}
