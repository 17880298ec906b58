package port

import "time"

// throttle enforces a minimum interval between successive events. Unlike a
// rate limiter it never waits: events inside the interval are dropped.
type throttle struct {
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval, now: time.Now}
}

// allow reports whether an event may be emitted now and, if so, starts a new interval.
func (t *throttle) allow() bool {
	if t == nil || t.interval <= 0 {
		return true
	}
	now := t.now()
	if now.Before(t.next) {
		return false
	}
	t.next = now.Add(t.interval)
	return true
}
