package port

import (
	"context"
	"time"

	"github.com/ensigniasec/jobdeck/internal/action"
)

// UserEvents forwards ad hoc events into the bus.
type UserEvents struct {
	events <-chan action.UserEvent
}

// NewUserEvents returns a forwarder reading from events.
func NewUserEvents(events <-chan action.UserEvent) *UserEvents {
	return &UserEvents{events: events}
}

func (u *UserEvents) Name() string { return "user-events" }

func (u *UserEvents) Interval() time.Duration { return 0 }

func (u *UserEvents) Poll(ctx context.Context) (action.Action, bool) {
	select {
	case ev, ok := <-u.events:
		if !ok {
			<-ctx.Done()
			return nil, false
		}
		return ev, true
	case <-ctx.Done():
		return nil, false
	}
}
