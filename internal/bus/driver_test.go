package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/jobdeck/internal/action"
	"github.com/ensigniasec/jobdeck/internal/focus"
)

// recorder logs every action it sees and optionally derives more.
type recorder struct {
	Base
	seen   []action.Action
	inputs []action.Action
	derive func(a action.Action) []action.Action
}

func newRecorder(id action.ComponentID) *recorder {
	return &recorder{Base: Base{Name: id}}
}

func (r *recorder) HandleEvent(a action.Action) []action.Action {
	r.inputs = append(r.inputs, a)
	if r.derive != nil {
		return r.derive(a)
	}
	return nil
}

func (r *recorder) Update(a action.Action) []action.Action {
	r.seen = append(r.seen, a)
	if r.derive != nil {
		return r.derive(a)
	}
	return nil
}

type countingRenderer struct {
	frames    int
	receivers map[action.ComponentID]bool
}

func (c *countingRenderer) Render(_, _ int, components []Component, receives func(action.ComponentID) bool) {
	c.frames++
	c.receivers = map[action.ComponentID]bool{}
	for _, comp := range components {
		c.receivers[comp.ID()] = receives(comp.ID())
	}
}

func newTestDriver() (*Driver, *Bus, *countingRenderer) {
	b := New(16)
	r := &countingRenderer{}
	return NewDriver(b, focus.NewManager("home"), r), b, r
}

func userEvents(as []action.Action) []string {
	var names []string
	for _, a := range as {
		if ev, ok := a.(action.UserEvent); ok {
			names = append(names, ev.Name)
		}
	}
	return names
}

func TestStep_EmptyQueueDoesNothing(t *testing.T) {
	d, _, r := newTestDriver()
	assert.False(t, d.Step())
	assert.Zero(t, r.frames)
}

func TestStep_FIFOAcrossSenders(t *testing.T) {
	d, b, _ := newTestDriver()
	rec := newRecorder("home")
	d.Mount(rec)

	s1, s2 := b.Sender(), b.Sender()
	require.NoError(t, s1.Send(context.Background(), action.UserEvent{Name: "a"}))
	require.NoError(t, s2.Send(context.Background(), action.UserEvent{Name: "b"}))
	require.True(t, s1.TrySend(action.UserEvent{Name: "c"}))

	d.Step()
	assert.Equal(t, []string{"a", "b", "c"}, userEvents(rec.seen))
}

func TestStep_DerivedActionsAppendAfterQueued(t *testing.T) {
	d, b, _ := newTestDriver()
	rec := newRecorder("home")
	rec.derive = func(a action.Action) []action.Action {
		if ev, ok := a.(action.UserEvent); ok && ev.Name == "a" {
			return []action.Action{action.UserEvent{Name: "a-derived"}}
		}
		return nil
	}
	d.Mount(rec)

	s := b.Sender()
	require.True(t, s.TrySend(action.UserEvent{Name: "a"}))
	require.True(t, s.TrySend(action.UserEvent{Name: "b"}))

	d.Step()
	assert.Equal(t, []string{"a", "b", "a-derived"}, userEvents(rec.seen),
		"derived actions run in the same pass, after actions already queued")
}

func TestStep_PushedActionsRunBeforeBusActions(t *testing.T) {
	d, b, _ := newTestDriver()
	rec := newRecorder("home")
	d.Mount(rec)

	require.True(t, b.Sender().TrySend(action.UserEvent{Name: "port"}))
	d.Push(action.Key{Code: "x"}, action.UserEvent{Name: "local"})

	d.Step()
	assert.Equal(t, []action.Action{action.Key{Code: "x"}}, rec.inputs)
	assert.Equal(t, []string{"local", "port"}, userEvents(rec.seen))
}

func TestStep_RenderIsCoalesced(t *testing.T) {
	d, b, r := newTestDriver()
	d.Mount(newRecorder("home"))

	s := b.Sender()
	for i := 0; i < 5; i++ {
		require.True(t, s.TrySend(action.Render{}))
	}
	require.True(t, s.TrySend(action.Resize{Width: 80, Height: 24}))

	assert.True(t, d.Step())
	assert.Equal(t, 1, r.frames)
	w, h := d.Size()
	assert.Equal(t, 80, w)
	assert.Equal(t, 24, h)

	// A pass without render-class actions does not paint.
	require.True(t, s.TrySend(action.Tick{}))
	assert.False(t, d.Step())
	assert.Equal(t, 1, r.frames)
}

func TestStep_InputGoesToHandleEvent(t *testing.T) {
	d, _, _ := newTestDriver()
	rec := newRecorder("home")
	d.Mount(rec)

	d.Push(action.Key{Code: "enter"}, action.Mouse{X: 1, Y: 2}, action.Tick{})
	d.Step()

	assert.Equal(t, []action.Action{action.Key{Code: "enter"}, action.Mouse{X: 1, Y: 2}}, rec.inputs)
	assert.Equal(t, []action.Action{action.Tick{}}, rec.seen)
}

func TestStep_ExclusiveFocusGatesComponents(t *testing.T) {
	d, _, r := newTestDriver()
	home := newRecorder("home")
	popup := newRecorder("popup")
	d.Mount(home)
	d.Mount(popup)

	d.Push(action.RequestFocus{Component: "popup", Kind: action.Exclusive})
	d.Step()
	assert.Equal(t, []action.Action{action.FocusChanged{Component: "popup", Kind: action.Exclusive}}, popup.seen[1:],
		"the focus change is delivered to the component it names")
	assert.Equal(t, map[action.ComponentID]bool{"home": false, "popup": true}, r.receivers)

	home.seen, popup.seen = nil, nil
	d.Push(action.Key{Code: "j"}, action.Resize{Width: 10, Height: 5})
	d.Step()
	assert.Empty(t, home.inputs)
	assert.Equal(t, []action.Action{action.Key{Code: "j"}}, popup.inputs)
	assert.Equal(t, []action.Action{action.Resize{Width: 10, Height: 5}}, home.seen, "resize reaches every component")

	d.Push(action.ReleaseFocus{Component: "popup"})
	d.Step()
	assert.Contains(t, home.seen, action.Action(action.FocusChanged{Component: "home", Kind: action.Active}))
	assert.True(t, d.Focus().ShouldReceiveEvent("home"))
}

func TestStep_FocusManagerRunsBeforeComponents(t *testing.T) {
	d, _, _ := newTestDriver()
	var gateDuringUpdate bool
	home := newRecorder("home")
	home.derive = func(a action.Action) []action.Action {
		if _, ok := a.(action.RequestFocus); ok {
			gateDuringUpdate = d.Focus().ShouldReceiveEvent("home")
		}
		return nil
	}
	popup := newRecorder("popup")
	d.Mount(home)
	d.Mount(popup)

	d.Push(action.RequestFocus{Component: "popup", Kind: action.Exclusive})
	d.Step()

	assert.Empty(t, home.seen, "home is gated out by the time components see the request")
	assert.False(t, gateDuringUpdate)
	assert.Equal(t, action.ComponentID("popup"), d.Focus().Current())
}

func TestStep_HooksAreNotGated(t *testing.T) {
	d, _, _ := newTestDriver()
	d.Mount(newRecorder("popup"))
	var hooked []action.Action
	d.Hook(func(a action.Action) []action.Action {
		hooked = append(hooked, a)
		if ev, ok := a.(action.UserEvent); ok && ev.Name == "ping" {
			return []action.Action{action.UserEvent{Name: "pong"}}
		}
		return nil
	})

	d.Push(action.RequestFocus{Component: "popup", Kind: action.Exclusive})
	d.Push(action.UserEvent{Name: "ping"})
	d.Step()

	assert.Equal(t, []string{"ping", "pong"}, userEvents(hooked))
}

func TestStep_QuitAndSuspend(t *testing.T) {
	d, _, r := newTestDriver()
	d.Mount(newRecorder("home"))

	d.Push(action.Suspend{}, action.Render{})
	assert.False(t, d.Step(), "no painting while suspended")
	assert.True(t, d.Suspended())
	assert.Zero(t, r.frames)

	d.Push(action.Resume{})
	assert.True(t, d.Step())
	assert.False(t, d.Suspended())

	d.Push(action.Quit{}, action.Render{})
	assert.False(t, d.Step())
	assert.True(t, d.ShouldQuit())
}

func TestStep_DerivedLimitStopsRunawayComponents(t *testing.T) {
	d, _, _ := newTestDriver()
	loop := newRecorder("home")
	loop.derive = func(action.Action) []action.Action { return []action.Action{action.Tick{}} }
	d.Mount(loop)

	d.Push(action.Tick{})
	d.Step()
	assert.Len(t, loop.seen, maxDerivedPerStep+1)
}

func TestBus_WaitAndConcurrentSenders(t *testing.T) {
	b := New(0)
	d := NewDriver(b, focus.NewManager("home"), nil)
	rec := newRecorder("home")
	d.Mount(rec)

	const senders, perSender = 4, 50
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s := b.Sender()
			for j := 0; j < perSender; j++ {
				_ = s.Send(context.Background(), action.UserEvent{Name: name, Payload: string(rune('a' + j%26))})
			}
		}(string(rune('A' + i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for len(rec.seen) < senders*perSender {
		require.NoError(t, b.Wait(ctx))
		d.Step()
	}
	wg.Wait()

	// Per-sender order survives the interleaving.
	next := map[string]int{}
	for _, a := range rec.seen {
		ev := a.(action.UserEvent)
		assert.Equal(t, string(rune('a'+next[ev.Name]%26)), ev.Payload)
		next[ev.Name]++
	}
}

func TestSender_SendHonoursContext(t *testing.T) {
	b := New(1)
	s := b.Sender()
	require.True(t, s.TrySend(action.Tick{}))
	assert.False(t, s.TrySend(action.Tick{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, action.Tick{}), context.Canceled)
}
