// Package bus is the single-consumer action queue between background ports,
// the terminal adapter and the mounted components.
//
// Ports and other goroutines hold a Sender. Only the Driver reads from the
// Bus, so actions from one sender are observed in the order they were sent.
package bus

import (
	"context"

	"github.com/ensigniasec/jobdeck/internal/action"
)

// DefaultBufferSize bounds the number of queued actions before senders block.
const DefaultBufferSize = 256

// Bus holds queued actions until the driver drains them.
type Bus struct {
	queue  chan action.Action
	notify chan struct{}
}

// New returns a Bus buffering up to size actions. A size below one uses DefaultBufferSize.
func New(size int) *Bus {
	if size < 1 {
		size = DefaultBufferSize
	}
	return &Bus{
		queue:  make(chan action.Action, size),
		notify: make(chan struct{}, 1),
	}
}

// Sender returns a handle that can be copied freely and handed to ports.
func (b *Bus) Sender() Sender { return Sender{bus: b} }

// Notify is signalled after each send. A single pending signal may stand for
// any number of queued actions.
func (b *Bus) Notify() <-chan struct{} { return b.notify }

// Wait blocks until an action has been sent or ctx is done.
func (b *Bus) Wait(ctx context.Context) error {
	select {
	case <-b.notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain appends every queued action to dst without blocking.
func (b *Bus) drain(dst []action.Action) []action.Action {
	for {
		select {
		case a := <-b.queue:
			dst = append(dst, a)
		default:
			return dst
		}
	}
}

func (b *Bus) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Sender enqueues actions on a Bus. The zero value is not usable.
type Sender struct {
	bus *Bus
}

// Send queues a, blocking while the bus is full. It returns ctx.Err() if ctx
// ends first, in which case a is dropped.
func (s Sender) Send(ctx context.Context, a action.Action) error {
	select {
	case s.bus.queue <- a:
		s.bus.wake()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend queues a if there is room and reports whether it did.
func (s Sender) TrySend(a action.Action) bool {
	select {
	case s.bus.queue <- a:
		s.bus.wake()
		return true
	default:
		return false
	}
}
