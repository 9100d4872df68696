package modal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func newTestManager(t *testing.T) (*Manager, *MemorySurface, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	surface := NewMemorySurface(DefaultExitDelay)
	m := New(surface, WithClock(clock))
	t.Cleanup(m.Dispose)
	return m, surface, clock
}

func TestShowStacksAndShowsBackdrop(t *testing.T) {
	m, surface, _ := newTestManager(t)

	a := m.Show(Config{Title: "A"})
	require.True(t, surface.BackdropVisible())
	require.Equal(t, []string{a.ID}, m.Stack())

	b := m.Show(Config{})
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, []string{a.ID, b.ID}, m.Stack())
	assert.Same(t, b, m.ActiveModal())
	assert.True(t, m.IsOpen())
	assert.Equal(t, StateVisible, m.State(b.ID))
	assert.True(t, b.Active())
}

func TestShowAppliesDefaults(t *testing.T) {
	m, _, _ := newTestManager(t)

	el := m.Show(Config{Size: "gigantic"})
	assert.Equal(t, "Modal Title", el.Title)
	assert.Equal(t, SizeMedium, el.Size)
	assert.Contains(t, el.Classes, "dtt-modal-medium")
	assert.True(t, el.Dismissible)
	assert.Contains(t, el.HTML, "dtt-modal-close")
}

func TestRenderEscapesTitleAndLabels(t *testing.T) {
	m, _, _ := newTestManager(t)

	el := m.Show(Config{
		Title:   `<script>x</script>`,
		Content: `<b>trusted</b>`,
		Buttons: []Button{{Label: `Save & "Close"`, Style: StylePrimary, Icon: "check"}},
	})
	assert.NotContains(t, el.HTML, "<script>")
	assert.Contains(t, el.HTML, "&lt;script&gt;")
	assert.Contains(t, el.HTML, "<b>trusted</b>")
	assert.Contains(t, el.HTML, `data-action="0"`)
	assert.Contains(t, el.HTML, "dtt-modal-btn-primary")
	assert.Contains(t, el.HTML, "Save &amp; &#34;Close&#34;")
}

func TestCloseAllEmptiesStackAndHidesBackdrop(t *testing.T) {
	m, surface, clock := newTestManager(t)

	closed := 0
	for i := 0; i < 3; i++ {
		m.Show(Config{OnClose: func() { closed++ }})
	}
	m.Loading(LoadingConfig{})

	m.CloseAll()
	assert.Empty(t, m.Stack())
	assert.False(t, m.IsOpen())
	assert.Nil(t, m.ActiveModal())
	assert.False(t, surface.BackdropVisible())
	assert.Equal(t, 3, closed)

	assert.Len(t, surface.Elements(), 4, "elements stay mounted until the exit transition ends")
	clock.Advance(DefaultExitDelay)
	assert.Empty(t, surface.Elements())
}

func TestCloseIsIdempotent(t *testing.T) {
	m, surface, clock := newTestManager(t)

	calls := 0
	a := m.Show(Config{OnClose: func() { calls++ }})
	b := m.Show(Config{})

	m.Close(a.ID)
	m.Close(a.ID)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosing, m.State(a.ID))
	assert.Equal(t, []string{b.ID}, m.Stack())

	clock.Advance(DefaultExitDelay)
	m.Close(a.ID)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateRemoved, m.State(a.ID))
	assert.Nil(t, surface.Lookup(a.ID))
	assert.NotNil(t, surface.Lookup(b.ID))

	clock.mu.Lock()
	scheduled := 0
	for _, tm := range clock.timers {
		if tm.fired {
			scheduled++
		}
	}
	clock.mu.Unlock()
	assert.Equal(t, 1, scheduled, "removal must run exactly once")
}

func TestCloseUnknownIsNoop(t *testing.T) {
	m, surface, _ := newTestManager(t)
	a := m.Show(Config{})
	m.Close("modal_missing")
	assert.Equal(t, []string{a.ID}, m.Stack())
	assert.True(t, surface.BackdropVisible())
}

func TestCloseTopModalClosesMostRecent(t *testing.T) {
	m, _, _ := newTestManager(t)

	a := m.Show(Config{Title: "A"})
	b := m.Show(Config{Title: "B"})
	m.CloseTopModal()

	assert.Equal(t, StateClosing, m.State(b.ID))
	assert.Equal(t, StateVisible, m.State(a.ID))
	assert.Same(t, a, m.ActiveModal())

	c := m.Show(Config{Title: "C"})
	m.Close(a.ID)
	m.CloseTopModal()
	assert.Equal(t, StateClosing, m.State(c.ID))
	assert.False(t, m.IsOpen())
}

func TestConfirmResolvesByButton(t *testing.T) {
	m, _, _ := newTestManager(t)

	for _, tc := range []struct {
		name  string
		index int
		want  bool
	}{
		{"cancel", 0, false},
		{"confirm", 1, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			done := make(chan bool, 1)
			go func() { done <- m.Confirm(context.Background(), ConfirmConfig{Message: "Delete?"}) }()

			id := waitForTop(t, m)
			require.NoError(t, m.Activate(context.Background(), id, tc.index))
			assert.Equal(t, tc.want, <-done)
			assert.Equal(t, StateClosing, m.State(id))
		})
	}
}

func TestConfirmCustomLabelsKeepButtonOrder(t *testing.T) {
	m, _, _ := newTestManager(t)

	confirmed := false
	done := make(chan bool, 1)
	go func() {
		done <- m.Confirm(context.Background(), ConfirmConfig{
			ConfirmText:  "Delete",
			CancelText:   "Keep",
			ConfirmStyle: StyleDanger,
			OnConfirm:    func() { confirmed = true },
		})
	}()
	id := waitForTop(t, m)
	el, ok := m.Get(id)
	require.True(t, ok)
	require.Len(t, el.Buttons, 2)
	assert.Equal(t, "Keep", el.Buttons[0].Label)
	assert.Equal(t, StyleDanger, el.Buttons[1].Style)

	require.NoError(t, m.Activate(context.Background(), id, 1))
	assert.True(t, <-done)
	assert.True(t, confirmed)
}

func TestConfirmDismissedResolvesFalse(t *testing.T) {
	m, _, _ := newTestManager(t)

	done := make(chan bool, 1)
	go func() { done <- m.Confirm(context.Background(), ConfirmConfig{}) }()
	waitForTop(t, m)
	assert.True(t, m.HandleKey("Escape"))
	assert.False(t, <-done)
}

func TestConfirmContextCancel(t *testing.T) {
	m, _, _ := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() { done <- m.Confirm(ctx, ConfirmConfig{}) }()
	id := waitForTop(t, m)
	cancel()
	assert.False(t, <-done)
	assert.Equal(t, StateClosing, m.State(id))
}

func TestAlertAcknowledged(t *testing.T) {
	m, _, _ := newTestManager(t)

	done := make(chan bool, 1)
	go func() {
		done <- m.Alert(context.Background(), AlertConfig{Message: "Saved", Type: AlertSuccess})
	}()
	id := waitForTop(t, m)
	el, _ := m.Get(id)
	assert.Contains(t, el.HTML, "check-circle")
	assert.Equal(t, "OK", el.Buttons[0].Label)

	require.NoError(t, m.Activate(context.Background(), id, 0))
	assert.True(t, <-done)
}

func TestLoadingIgnoresUserDismissal(t *testing.T) {
	m, _, _ := newTestManager(t)

	id := m.Loading(LoadingConfig{Message: "Uploading"})
	el, ok := m.Get(id)
	require.True(t, ok)
	assert.False(t, el.Dismissible)
	assert.NotContains(t, el.HTML, "dtt-modal-close")

	assert.False(t, m.HandleKey("Escape"))
	assert.False(t, m.BackdropClick())
	assert.False(t, m.Dismiss(id))
	assert.Equal(t, StateVisible, m.State(id))

	m.Close(id)
	assert.False(t, m.IsOpen())
}

func TestBackdropClickDismissesTop(t *testing.T) {
	m, _, _ := newTestManager(t)
	a := m.Show(Config{})
	b := m.Show(Config{})
	assert.False(t, m.HandleKey("Enter"))
	assert.True(t, m.BackdropClick())
	assert.Equal(t, StateClosing, m.State(b.ID))
	assert.Equal(t, StateVisible, m.State(a.ID))
}

func TestActivateKeepOpenAndErrors(t *testing.T) {
	m, _, _ := newTestManager(t)

	failing := errors.New("network down")
	ran := 0
	el := m.Show(Config{Buttons: []Button{
		{Label: "Retry", KeepOpen: true, Action: func(context.Context, *Element) error { ran++; return nil }},
		{Label: "Upload", Action: func(context.Context, *Element) error { return failing }},
		{Label: "Close"},
	}})

	require.NoError(t, m.Activate(context.Background(), el.ID, 0))
	assert.Equal(t, 1, ran)
	assert.Equal(t, StateVisible, m.State(el.ID))

	assert.ErrorIs(t, m.Activate(context.Background(), el.ID, 1), failing)
	assert.Equal(t, StateVisible, m.State(el.ID))

	assert.ErrorIs(t, m.Activate(context.Background(), el.ID, 7), ErrNoSuchButton)

	require.NoError(t, m.Activate(context.Background(), el.ID, 2))
	assert.Equal(t, StateClosing, m.State(el.ID))
	assert.ErrorIs(t, m.Activate(context.Background(), el.ID, 2), ErrNotOpen)
}

func TestActionSuspendsClose(t *testing.T) {
	m, _, _ := newTestManager(t)

	release := make(chan struct{})
	started := make(chan struct{})
	el := m.Show(Config{Buttons: []Button{{
		Label: "Upload",
		Action: func(context.Context, *Element) error {
			close(started)
			<-release
			return nil
		},
	}}})

	done := make(chan error, 1)
	go func() { done <- m.Activate(context.Background(), el.ID, 0) }()
	<-started

	other := m.Show(Config{Title: "meanwhile"})
	m.Close(other.ID)
	assert.Equal(t, StateVisible, m.State(el.ID))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosing, m.State(el.ID))
}

func TestReentrantCloseFromOnClose(t *testing.T) {
	m, surface, _ := newTestManager(t)

	var b *Element
	a := m.Show(Config{OnClose: func() {
		m.Close(b.ID)
		m.Show(Config{Title: "follow-up"})
	}})
	b = m.Show(Config{})

	m.Close(a.ID)
	require.Len(t, m.Stack(), 1)
	top := m.ActiveModal()
	require.NotNil(t, top)
	assert.Equal(t, "follow-up", top.Title)
	assert.Equal(t, StateClosing, m.State(b.ID))
	assert.True(t, surface.BackdropVisible())
}

func TestExitDelayFollowsSurfaceTransition(t *testing.T) {
	clock := &fakeClock{}
	surface := NewMemorySurface(time.Second)
	m := New(surface, WithClock(clock))
	defer m.Dispose()

	el := m.Show(Config{})
	m.Close(el.ID)
	clock.Advance(DefaultExitDelay)
	assert.Equal(t, StateClosing, m.State(el.ID))
	clock.Advance(time.Second)
	assert.Equal(t, StateRemoved, m.State(el.ID))
}

func TestDisposeFlushesPendingRemovals(t *testing.T) {
	surface := NewMemorySurface(DefaultExitDelay)
	m := New(surface)
	m.Show(Config{})
	m.Show(Config{})
	m.Dispose()

	assert.Empty(t, surface.Elements())
	assert.False(t, surface.BackdropVisible())
	assert.False(t, m.IsOpen())
}

func TestConfirmAfterDisposeReturnsFalse(t *testing.T) {
	surface := NewMemorySurface(DefaultExitDelay)
	m := New(surface)
	m.Dispose()

	done := make(chan bool, 1)
	go func() { done <- m.Confirm(context.Background(), ConfirmConfig{Title: "Delete file?"}) }()
	select {
	case v := <-done:
		assert.False(t, v)
	case <-time.After(time.Second):
		t.Fatalf("Confirm blocked on a disposed manager")
	}
	assert.False(t, m.Alert(context.Background(), AlertConfig{Title: "Late"}))

	id := m.Loading(LoadingConfig{})
	assert.Equal(t, StateRemoved, m.State(id))
	assert.Equal(t, StateRemoved, m.State(m.Notify(AlertConfig{})))
	assert.Empty(t, m.Stack())
	assert.Empty(t, surface.Elements())
	assert.False(t, surface.BackdropVisible())
}

func TestDisposeResolvesWaitingConfirm(t *testing.T) {
	m := New(NewMemorySurface(DefaultExitDelay))

	done := make(chan bool, 1)
	go func() { done <- m.Confirm(context.Background(), ConfirmConfig{}) }()
	waitForTop(t, m)
	m.Dispose()
	assert.False(t, <-done)
	assert.False(t, m.IsOpen())
}

func TestRealClockRemovesElement(t *testing.T) {
	surface := NewMemorySurface(10 * time.Millisecond)
	m := New(surface)
	defer m.Dispose()

	el := m.Show(Config{})
	m.Close(el.ID)
	assert.Eventually(t, func() bool { return surface.Lookup(el.ID) == nil }, time.Second, 5*time.Millisecond)
}

func waitForTop(t *testing.T, m *Manager) string {
	t.Helper()
	var id string
	require.Eventually(t, func() bool {
		if el := m.ActiveModal(); el != nil {
			id = el.ID
			return true
		}
		return false
	}, time.Second, time.Millisecond)
	return id
}
