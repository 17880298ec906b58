package tui

import (
	"time"

	"github.com/ensigniasec/jobdeck/internal/action"
)

// Package-level constants to avoid magic numbers and improve readability.
const (
	channelBufferSize = 256
	taskQueueSize     = 32
	requestQueueSize  = 8

	headerLines = 1
	statusLines = 1
	// detailLines is reserved below the jobs table for the selected job.
	detailLines = 2
	// popupMaxWidth caps notification and help popups.
	popupMaxWidth = 72

	// staleTaskTicks drops a task from the status bar when it has not reported for this many ticks.
	staleTaskTicks = 40
	// finishedTaskTicks keeps a finished task visible for a moment.
	finishedTaskTicks = 8

	defaultWidth  = 100
	defaultHeight = 30

	defaultRemoteRoot = "/"
)

// Component ids.
const (
	headerID action.ComponentID = "header"
	jobsID   action.ComponentID = "jobs"
	filesID  action.ComponentID = "files"
	logsID   action.ComponentID = "logs"
	statusID action.ComponentID = "status"
	noticeID action.ComponentID = "notice"
	helpID   action.ComponentID = "help"
)

// mainPanes are the tabs of the main area, in tab order.
//
//nolint:gochecknoglobals // immutable lookup table.
var mainPanes = []action.ComponentID{jobsID, filesID, logsID}

func isMainPane(id action.ComponentID) bool {
	for _, p := range mainPanes {
		if p == id {
			return true
		}
	}
	return false
}

// Durations used when the configuration leaves a rate unset.
const (
	defaultTickRate  = 250 * time.Millisecond
	defaultFrameRate = 33 * time.Millisecond
)
