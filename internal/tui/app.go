package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
	"github.com/ensigniasec/jobdeck/internal/bus"
	"github.com/ensigniasec/jobdeck/internal/config"
	"github.com/ensigniasec/jobdeck/internal/focus"
	"github.com/ensigniasec/jobdeck/internal/port"
)

// Authenticator is the login collaborator of the UI. auth.Flow implements it.
type Authenticator interface {
	port.DeviceAuthorizer
	LoggedIn() bool
	Logout() error
}

// Options wires the UI to its collaborators.
type Options struct {
	Config config.Config
	Client api.RemoteClient
	// Auth may be nil, in which case login and logout are reported as unavailable.
	Auth Authenticator
}

// App owns the bus, the driver with its mounted components and the background ports.
type App struct {
	bus      *bus.Bus
	driver   *bus.Driver
	renderer *frameRenderer
	group    *port.Group
	keys     keyMap
	session  *session
	auth     Authenticator

	tasks       chan action.BackgroundTask
	logRequests chan string
	logins      chan port.DeviceRequest
	events      chan action.UserEvent

	tickRate, frameRate time.Duration
}

// NewApp builds the component tree and the ports. Nothing runs until Run or RunPorts.
func NewApp(opts Options) *App {
	cfg := opts.Config
	b := bus.New(channelBufferSize)
	r := &frameRenderer{}
	a := &App{
		bus:         b,
		driver:      bus.NewDriver(b, focus.NewManager(jobsID), r),
		renderer:    r,
		keys:        newKeyMap(),
		auth:        opts.Auth,
		session:     &session{pane: jobsID},
		tasks:       make(chan action.BackgroundTask, taskQueueSize),
		logRequests: make(chan string, requestQueueSize),
		logins:      make(chan port.DeviceRequest, 1),
		events:      make(chan action.UserEvent, requestQueueSize),
		tickRate:    orDefault(cfg.TickRate, defaultTickRate),
		frameRate:   orDefault(cfg.FrameRate, defaultFrameRate),
	}
	if opts.Auth != nil {
		a.session.loggedIn = opts.Auth.LoggedIn()
	}

	notices := newNoticePopup(a.keys)
	a.driver.Mount(newHeader(a.session))
	a.driver.Mount(newJobsPane(a.keys))
	a.driver.Mount(newFilesPane(a.keys, cfg.DownloadDir))
	a.driver.Mount(newLogsPane(a.keys))
	a.driver.Mount(newStatusBar())
	a.driver.Mount(notices)
	a.driver.Mount(newHelpPopup(a.keys))
	a.driver.Hook(a.effects)
	a.driver.Hook(notices.collect)
	a.driver.Push(action.RequestFocus{Component: statusID, Kind: action.Permanent})

	sender := b.Sender()
	a.group = port.NewGroup(sender,
		port.NewJobsRefresher(opts.Client, cfg.RefreshInterval),
		port.NewSystemsRefresher(opts.Client, cfg.RefreshInterval),
		port.NewTaskQueue(opts.Client, a.tasks, sender,
			port.WithDownloadDir(cfg.DownloadDir),
			port.WithTransferPollInterval(cfg.TransferPollInterval),
			port.WithProgressInterval(cfg.ProgressInterval),
		),
		port.NewLogTailer(opts.Client, a.logRequests, cfg.LogPollInterval),
		port.NewUserEvents(a.events),
	)
	if opts.Auth != nil {
		a.group.Add(port.NewDeviceLogin(opts.Auth, a.logins))
	}
	return a
}

// UserEvents returns the injection point for ad hoc events.
func (a *App) UserEvents() chan<- action.UserEvent { return a.events }

// RunPorts runs the background ports until ctx ends.
func (a *App) RunPorts(ctx context.Context) error { return a.group.Run(ctx) }

// effects is the application hook: it hands intents to the ports and applies
// the global key bindings.
func (a *App) effects(act action.Action) []action.Action {
	switch v := act.(type) {
	case action.Key:
		return a.globalKey(v)
	case action.Enqueue:
		select {
		case a.tasks <- v.Task:
		default:
			return []action.Action{action.Error{
				Message:    fmt.Sprintf("Too many background tasks queued, dropped %q.", v.Task.String()),
				Suggestion: "Wait for running downloads to finish.",
			}}
		}
	case action.WatchLog:
		select {
		case a.logRequests <- v.JobID:
		default:
			logrus.WithField("job", v.JobID).Warn("log request queue full")
		}
	case action.LoginRequested:
		if a.auth == nil {
			return []action.Action{action.Error{Message: "Login is not configured."}}
		}
		select {
		case a.logins <- port.DeviceRequest{}:
		default:
			return []action.Action{action.Info{Message: "A login is already in progress."}}
		}
	case action.LogoutRequested:
		if a.auth == nil {
			return []action.Action{action.Error{Message: "Login is not configured."}}
		}
		if err := a.auth.Logout(); err != nil {
			if e, ok := port.ErrorAction(fmt.Errorf("log out: %w", err)); ok {
				return []action.Action{e}
			}
			return nil
		}
		return []action.Action{action.LoggedOut{}, action.WatchLog{JobID: ""}}
	case action.LoggedIn:
		a.session.loggedIn = true
	case action.LoggedOut:
		a.session.loggedIn = false
	case action.FocusChanged:
		return a.focusChanged(v)
	}
	return nil
}

func (a *App) focusChanged(fc action.FocusChanged) []action.Action {
	if isMainPane(fc.Component) && fc.Kind == action.Active {
		a.session.pane = fc.Component
	}
	if fc.Component == statusID {
		return nil
	}
	// Demote the status bar while a popup is open and restore it afterwards.
	switch fc.Kind {
	case action.Exclusive, action.Active:
		return []action.Action{action.RequestFocus{Component: statusID, Kind: action.Permanent}}
	default:
		return nil
	}
}

func (a *App) globalKey(k action.Key) []action.Action {
	switch {
	case key.Matches(k, a.keys.ForceQuit):
		return []action.Action{action.Quit{}}
	case key.Matches(k, a.keys.Suspend):
		return []action.Action{action.Suspend{}}
	}
	if a.driver.Focus().IsExclusive() {
		return nil
	}
	switch {
	case key.Matches(k, a.keys.Quit):
		return []action.Action{action.Quit{}}
	case key.Matches(k, a.keys.NextTab):
		return []action.Action{action.RequestFocus{Component: a.nextPane(), Kind: action.Active}}
	case key.Matches(k, a.keys.Jobs):
		return []action.Action{action.RequestFocus{Component: jobsID, Kind: action.Active}}
	case key.Matches(k, a.keys.Files):
		return []action.Action{action.RequestFocus{Component: filesID, Kind: action.Active}}
	case key.Matches(k, a.keys.Logs):
		return []action.Action{action.RequestFocus{Component: logsID, Kind: action.Active}}
	case key.Matches(k, a.keys.Login):
		return []action.Action{action.LoginRequested{}}
	case key.Matches(k, a.keys.Logout):
		return []action.Action{action.LogoutRequested{}}
	}
	return nil
}

func (a *App) nextPane() action.ComponentID {
	for i, id := range mainPanes {
		if id == a.session.pane {
			return mainPanes[(i+1)%len(mainPanes)]
		}
	}
	return mainPanes[0]
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
