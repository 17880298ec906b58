package bus

import "github.com/ensigniasec/jobdeck/internal/action"

// Component is a mounted piece of UI. The driver owns every component and calls
// it only from the driver goroutine.
//
// HandleEvent receives raw input (Key, Mouse); Update receives everything else.
// Both return derived actions, which the driver appends to the current pass.
type Component interface {
	ID() action.ComponentID
	HandleEvent(a action.Action) []action.Action
	Update(a action.Action) []action.Action
	View(width, height int) string
}

// Renderer paints one frame. receives reports whether a component currently
// passes the focus gate, so renderers can dim components that do not.
type Renderer interface {
	Render(width, height int, components []Component, receives func(action.ComponentID) bool)
}

// Hook sees every action before the components do, regardless of focus. It is
// the place for application-level effects such as handing tasks to ports.
type Hook func(a action.Action) []action.Action

// Base provides no-op implementations for embedding.
type Base struct {
	Name action.ComponentID
}

func (b Base) ID() action.ComponentID { return b.Name }

func (Base) HandleEvent(action.Action) []action.Action { return nil }

func (Base) Update(action.Action) []action.Action { return nil }

func (Base) View(int, int) string { return "" }
