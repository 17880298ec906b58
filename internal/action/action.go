// Package action defines the vocabulary shared by the driver, the focus manager,
// mounted components and background ports. Besides the api data types it has no
// upstream imports, so every other package can depend on it.
package action

import (
	"fmt"

	"github.com/ensigniasec/jobdeck/internal/api"
)

// Action is a closed set of UI intents and system events. Only types from this
// package can satisfy it (by embedding kind).
type Action interface {
	isAction()
}

// kind is embedded by every variant to close the Action set.
type kind struct{}

func (kind) isAction() {}

// ComponentID identifies a mounted component.
type ComponentID string

// FocusKind describes how a component holds focus.
type FocusKind int

const (
	Inactive FocusKind = iota
	Active
	Permanent
	PermanentInactive
	Exclusive
)

func (k FocusKind) String() string {
	switch k {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Permanent:
		return "permanent"
	case PermanentInactive:
		return "permanent-inactive"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("focus(%d)", int(k))
	}
}

// -- Lifecycle --

// Tick fires at the tick rate.
type Tick struct{ kind }

// Render requests a paint. Several Render actions within one drain collapse into one paint.
type Render struct{ kind }

// Resize reports new terminal dimensions.
type Resize struct {
	kind
	Width, Height int
}

// Quit ends the driver loop at the top of its next iteration.
type Quit struct{ kind }

// Suspend releases the terminal without stopping ports.
type Suspend struct{ kind }

// Resume re-acquires the terminal after Suspend.
type Resume struct{ kind }

// -- Input --

// Key is a keyboard event. Code follows the bubbletea key naming ("ctrl+c", "enter", "q").
type Key struct {
	kind
	Code string
}

// String makes Key usable with bubbles/key bindings.
func (k Key) String() string { return k.Code }

// Mouse is a mouse event.
type Mouse struct {
	kind
	X, Y   int
	Button string
}

// -- Focus --

// RequestFocus asks the focus manager to give Component focus of the given kind.
type RequestFocus struct {
	kind
	Component ComponentID
	Kind      FocusKind
}

// ReleaseFocus gives focus back.
type ReleaseFocus struct {
	kind
	Component ComponentID
}

// FocusChanged notifies Component of its new focus kind.
type FocusChanged struct {
	kind
	Component ComponentID
	Kind      FocusKind
}

// -- Notifications --

// Info is a user-facing informational message, optionally carrying a URL to open.
type Info struct {
	kind
	Message string
	URL     string
}

// Error is a user-facing error with an optional suggestion.
type Error struct {
	kind
	Message    string
	Suggestion string
}

// Progress reports the state of a running background task.
type Progress struct {
	kind
	TaskID  string
	Message string
	// Percent is in [0,100]; negative when unknown.
	Percent float64
}

// Dismiss closes the notification currently shown.
type Dismiss struct{ kind }

// -- Auth --

// LoginRequested starts a device login attempt.
type LoginRequested struct{ kind }

// LoggedIn reports a completed device login.
type LoggedIn struct{ kind }

// LogoutRequested asks the main loop to forget stored credentials.
type LogoutRequested struct{ kind }

// LoggedOut reports that stored credentials were removed.
type LoggedOut struct{ kind }

// -- Data --

// JobsRefreshed carries the latest job listing. Jobs is empty when the refresh failed.
type JobsRefreshed struct {
	kind
	Jobs []api.Job
}

// SystemsRefreshed carries the latest system listing. Systems is empty when the refresh failed.
type SystemsRefreshed struct {
	kind
	Systems []api.System
}

// PathsListed carries a remote directory listing.
type PathsListed struct {
	kind
	Path    string
	Entries []api.PathEntry
}

// FileDownloaded reports a finished download.
type FileDownloaded struct {
	kind
	Remote, Local string
	Bytes         int64
}

// JobDetailsLoaded carries a single job.
type JobDetailsLoaded struct {
	kind
	Job api.Job
}

// JobCancelled reports a cancelled job.
type JobCancelled struct {
	kind
	JobID string
}

// LogAppended carries new output of a watched job.
type LogAppended struct {
	kind
	JobID string
	Text  string
}

// TaskFailed reports a background task that could not complete.
type TaskFailed struct {
	kind
	TaskID  string
	Message string
}

// -- Component intents --

// SelectJob asks interested components to show the given job.
type SelectJob struct {
	kind
	JobID string
}

// Enqueue asks the main loop to hand Task to the background task queue.
type Enqueue struct {
	kind
	Task BackgroundTask
}

// WatchLog asks the log tailer to follow JobID. An empty JobID stops tailing.
type WatchLog struct {
	kind
	JobID string
}

// UserEvent is a generic injection point for ad hoc events.
type UserEvent struct {
	kind
	Name    string
	Payload string
}

// IsInput reports whether a is raw terminal input routed through HandleEvent.
func IsInput(a Action) bool {
	switch a.(type) {
	case Key, Mouse:
		return true
	default:
		return false
	}
}
