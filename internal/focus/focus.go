// Package focus implements the modal focus model: which mounted component may
// react to input, and a stack of prior holders restored in LIFO order.
//
// A Manager is owned by the driver and mutated only through RequestFocus and
// ReleaseFocus. It is not safe for concurrent use.
package focus

import (
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/jobdeck/internal/action"
)

type entry struct {
	id        action.ComponentID
	exclusive bool
}

// Manager tracks the current focus holder and the holders it displaced.
type Manager struct {
	current   action.ComponentID
	exclusive bool
	stack     []entry
}

// NewManager returns a Manager with initial as the non-exclusive holder.
func NewManager(initial action.ComponentID) *Manager {
	return &Manager{current: initial}
}

// Current returns the component holding focus.
func (m *Manager) Current() action.ComponentID { return m.current }

// IsExclusive reports whether the current holder captures all events.
func (m *Manager) IsExclusive() bool { return m.exclusive }

// Depth returns the number of displaced holders waiting on the stack.
func (m *Manager) Depth() int { return len(m.stack) }

// RequestFocus applies a focus request and returns the resulting notification.
// ok is false when the request is denied.
func (m *Manager) RequestFocus(id action.ComponentID, kind action.FocusKind) (action.FocusChanged, bool) {
	switch kind {
	case action.Inactive:
		if id == m.current {
			return m.ReleaseFocus(id), true
		}
		return changed(id, action.Inactive), true

	case action.Active:
		if m.exclusive && id != m.current {
			logrus.WithField("component", id).Debug("focus request denied: exclusive focus held by ", m.current)
			return action.FocusChanged{}, false
		}
		if id != m.current {
			m.push(id)
		}
		m.exclusive = false
		return changed(id, action.Active), true

	case action.Permanent:
		if m.exclusive {
			return changed(id, action.PermanentInactive), true
		}
		return changed(id, action.Permanent), true

	case action.PermanentInactive:
		return changed(id, action.PermanentInactive), true

	case action.Exclusive:
		if id != m.current {
			m.push(id)
		}
		m.exclusive = true
		return changed(id, action.Exclusive), true
	}
	return action.FocusChanged{}, false
}

// ReleaseFocus gives up focus held or awaited by id. Releasing a component that
// never held focus is not an error: it yields an Inactive notification.
func (m *Manager) ReleaseFocus(id action.ComponentID) action.FocusChanged {
	if id != m.current {
		m.remove(id)
		return changed(id, action.Inactive)
	}
	if n := len(m.stack); n > 0 {
		top := m.stack[n-1]
		m.stack = m.stack[:n-1]
		m.current, m.exclusive = top.id, top.exclusive
	}
	if m.exclusive {
		return changed(m.current, action.Exclusive)
	}
	return changed(m.current, action.Active)
}

// ShouldReceiveEvent gates whether id's update and draw logic runs for the
// current action: everyone receives unless an exclusive holder is active.
func (m *Manager) ShouldReceiveEvent(id action.ComponentID) bool {
	return !m.exclusive || id == m.current
}

// push saves the current holder and makes id current. Stale entries for id are
// dropped so the stack never holds the current component.
func (m *Manager) push(id action.ComponentID) {
	m.stack = append(m.stack, entry{id: m.current, exclusive: m.exclusive})
	m.remove(id)
	m.current = id
}

func (m *Manager) remove(id action.ComponentID) {
	kept := m.stack[:0]
	for _, e := range m.stack {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	m.stack = kept
}

func changed(id action.ComponentID, kind action.FocusKind) action.FocusChanged {
	return action.FocusChanged{Component: id, Kind: kind}
}
