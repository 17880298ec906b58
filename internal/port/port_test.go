package port

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/api"
)

// counterPort emits an increasing UserEvent on every poll.
type counterPort struct {
	name string
	n    int
}

func (c *counterPort) Name() string            { return c.name }
func (c *counterPort) Interval() time.Duration { return time.Millisecond }
func (c *counterPort) Poll(context.Context) (action.Action, bool) {
	c.n++
	return action.UserEvent{Name: c.name, Payload: fmt.Sprint(c.n)}, true
}

func TestGroup_RunsPortsUntilCancelled(t *testing.T) {
	sink := newRecordingSink()
	events := make(chan action.UserEvent, 1)
	g := NewGroup(sink, &counterPort{name: "a"}, &counterPort{name: "b"})
	g.Add(NewUserEvents(events))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	events <- action.UserEvent{Name: "injected"}

	deadline := time.After(5 * time.Second)
	for {
		seen := map[string]int{}
		for _, a := range sink.all() {
			seen[a.(action.UserEvent).Name]++
		}
		if seen["a"] >= 3 && seen["b"] >= 3 && seen["injected"] == 1 {
			break
		}
		select {
		case <-sink.sent:
		case <-deadline:
			t.Fatalf("ports did not produce enough output: %v", seen)
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("group did not stop")
	}

	// Each port's own output stays in order.
	last := map[string]int{}
	for _, a := range sink.all() {
		ev := a.(action.UserEvent)
		if ev.Name == "injected" {
			continue
		}
		var n int
		_, err := fmt.Sscan(ev.Payload, &n)
		require.NoError(t, err)
		assert.Greater(t, n, last[ev.Name])
		last[ev.Name] = n
	}
}

func TestErrorAction(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantOK     bool
		suggestion string
	}{
		{name: "nil", err: nil},
		{name: "cancelled", err: fmt.Errorf("list: %w", context.Canceled)},
		{name: "unauthorized", err: fmt.Errorf("list: %w", api.ErrUnauthorized), wantOK: true, suggestion: "log in"},
		{name: "not found", err: api.ErrNotFound, wantOK: true, suggestion: "still exists"},
		{name: "transfer", err: api.ErrTransfer, wantOK: true, suggestion: "Retry"},
		{name: "rate limited", err: api.RateLimitedError{RetryAfterSeconds: 30}, wantOK: true, suggestion: "30s"},
		{name: "denied", err: &oauth2.RetrieveError{ErrorCode: "access_denied"}, wantOK: true, suggestion: "denied"},
		{name: "timeout", err: context.DeadlineExceeded, wantOK: true, suggestion: "connection"},
		{name: "other", err: errors.New("boom"), wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ErrorAction(tt.err)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Nil(t, got)
				return
			}
			e := got.(action.Error)
			assert.Equal(t, tt.err.Error(), e.Message)
			if tt.suggestion == "" {
				assert.Empty(t, e.Suggestion)
			} else {
				assert.Contains(t, e.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestThrottle(t *testing.T) {
	now := time.Unix(0, 0)
	th := newThrottle(time.Second)
	th.now = func() time.Time { return now }

	assert.True(t, th.allow())
	assert.False(t, th.allow())
	now = now.Add(999 * time.Millisecond)
	assert.False(t, th.allow())
	now = now.Add(time.Millisecond)
	assert.True(t, th.allow())

	assert.True(t, newThrottle(0).allow())
	assert.True(t, newThrottle(0).allow())
}
