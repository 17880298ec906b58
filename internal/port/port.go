// Package port runs background workers that turn remote I/O into actions.
//
// A Port is polled in a loop on its own goroutine. Each Poll may block on a
// channel receive, a remote call or a status-polling sleep, and yields at most
// one action. Ports never return raw errors: failures become action.Error values
// (see ErrorAction) and the port stays ready for its next request.
package port

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ensigniasec/jobdeck/internal/action"
)

// Port is an independently polled background worker.
type Port interface {
	// Name is used in logs.
	Name() string
	// Interval is the pause between two polls. Zero polls again immediately,
	// which suits ports that block on a request channel.
	Interval() time.Duration
	// Poll performs one unit of work. ok is false when there is nothing to emit.
	Poll(ctx context.Context) (a action.Action, ok bool)
}

// Sink receives the actions produced by ports. bus.Sender implements it.
type Sink interface {
	Send(ctx context.Context, a action.Action) error
}

// Group runs a set of ports until its context ends.
type Group struct {
	sink  Sink
	ports []Port
}

// NewGroup returns a Group delivering every port's output to sink.
func NewGroup(sink Sink, ports ...Port) *Group {
	return &Group{sink: sink, ports: ports}
}

// Add registers more ports. It must be called before Run.
func (g *Group) Add(ports ...Port) { g.ports = append(g.ports, ports...) }

// Run starts one goroutine per port and blocks until ctx is cancelled and all
// of them have returned.
func (g *Group) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, p := range g.ports {
		eg.Go(func() error {
			return run(ctx, p, g.sink)
		})
	}
	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func run(ctx context.Context, p Port, sink Sink) error {
	log := logrus.WithField("port", p.Name())
	log.Debug("port started")
	defer log.Debug("port stopped")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if a, ok := p.Poll(ctx); ok {
			if err := sink.Send(ctx, a); err != nil {
				return nil
			}
		}
		if err := sleep(ctx, p.Interval()); err != nil {
			return nil
		}
	}
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
