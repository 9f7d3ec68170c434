package core

import "time"

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeClock records scheduled timers so tests can fire them on demand.
type fakeClock struct {
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fireAll fires every timer, including stopped ones, the way a real timer
// racing with Stop may still deliver its callback.
func (c *fakeClock) fireAll() {
	for _, t := range c.timers {
		if !t.fired {
			t.fired = true
			t.f()
		}
	}
}

func (c *fakeClock) fireActive() {
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			t.fired = true
			t.f()
		}
	}
}
