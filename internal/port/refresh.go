package port

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
)

// Refresher periodically fetches a collection. A failed fetch is logged and
// reported as an empty collection: it recurs every cycle, so it is not shown
// as an error.
type Refresher[T any] struct {
	name     string
	interval time.Duration
	fetch    func(ctx context.Context) ([]T, error)
	wrap     func(items []T) action.Action
}

// NewRefresher returns a Refresher calling fetch every interval and wrapping
// the result with wrap.
func NewRefresher[T any](name string, interval time.Duration, fetch func(context.Context) ([]T, error), wrap func([]T) action.Action) *Refresher[T] {
	return &Refresher[T]{name: name, interval: interval, fetch: fetch, wrap: wrap}
}

// NewJobsRefresher refreshes the job listing.
func NewJobsRefresher(client api.RemoteClient, interval time.Duration) *Refresher[api.Job] {
	return NewRefresher("jobs", interval, client.ListJobs, func(jobs []api.Job) action.Action {
		return action.JobsRefreshed{Jobs: jobs}
	})
}

// NewSystemsRefresher refreshes the system listing.
func NewSystemsRefresher(client api.RemoteClient, interval time.Duration) *Refresher[api.System] {
	return NewRefresher("systems", interval, client.ListSystems, func(systems []api.System) action.Action {
		return action.SystemsRefreshed{Systems: systems}
	})
}

func (r *Refresher[T]) Name() string { return r.name }

func (r *Refresher[T]) Interval() time.Duration { return r.interval }

func (r *Refresher[T]) Poll(ctx context.Context) (action.Action, bool) {
	items, err := r.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false
		}
		logrus.WithField("port", r.name).WithError(err).Warn("refresh failed")
		items = []T{}
	}
	return r.wrap(items), true
}
