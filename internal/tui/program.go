package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Run starts the background ports and the Bubble Tea program, and returns
// once the user quits and every port has stopped.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := NewApp(opts)
	portsDone := make(chan error, 1)
	go func() {
		portsDone <- app.RunPorts(ctx)
	}()

	p := tea.NewProgram(app.Model(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	go func() {
		// Leave the terminal when the caller gives up, e.g. on SIGTERM.
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	cancel()
	if perr := <-portsDone; perr != nil {
		logrus.WithError(perr).Warn("background ports stopped with an error")
		err = errors.Join(err, perr)
	}
	return err
}
