package tui

// Message types for Bubble Tea update loop.

// wakeMsg reports that ports have queued actions on the bus.
type wakeMsg struct{}

// tickMsg fires at the tick rate and becomes an action.Tick.
type tickMsg struct{}

// frameMsg fires at the frame rate and becomes an action.Render.
type frameMsg struct{}
