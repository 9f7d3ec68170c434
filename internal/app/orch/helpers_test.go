package orch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	mu     sync.Mutex
	id     domain.ConnectionID
	ident  domain.Identity
	frames []frame
	closed bool
}

func (c *client) TrySend(f core.Frame) error {
	var fr frame
	if err := json.Unmarshal(f, &fr); err != nil {
		return err
	}
	c.mu.Lock()
	c.frames = append(c.frames, fr)
	c.mu.Unlock()
	return nil
}

func (c *client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *client) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Type)
	}
	return out
}

// take returns and clears the received frames.
func (c *client) take() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.frames
	c.frames = nil
	return out
}

func (c *client) last(t *testing.T, typ string, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Type == typ {
			require.NoError(t, json.Unmarshal(c.frames[i].Payload, v))
			return
		}
	}
	t.Fatalf("%s: no %q frame in %v", c.id, typ, c.frames)
}

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) core.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) fireActive() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type harness struct {
	o     *Orchestrator
	clock *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{}
	o := New(Options{AfterFunc: clock.AfterFunc, InboxSize: 64})
	return &harness{o: o, clock: clock}
}

func (h *harness) connect(t *testing.T, conn, user, name string) *client {
	t.Helper()
	c := &client{id: domain.ConnectionID(conn), ident: domain.Identity{UserID: domain.UserID(user), DisplayName: name}}
	done := make(chan error, 1)
	h.o.Dispatch(Connect{Conn: c.id, Identity: c.ident, Signal: c, Done: done})
	require.NoError(t, <-done)
	return c
}

// drain dispatches events queued by timers.
func (h *harness) drain() {
	for {
		select {
		case ev := <-h.o.inbox:
			h.o.Dispatch(ev)
		default:
			return
		}
	}
}

func usernames(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var members []domain.Member
	require.NoError(t, json.Unmarshal(raw, &members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.DisplayName)
	}
	return out
}
