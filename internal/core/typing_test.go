package core

import (
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTyping(t *testing.T) (*TypingAggregator, *fakeClock, *[]TypingExpiry) {
	t.Helper()
	clock := &fakeClock{}
	var fired []TypingExpiry
	agg := NewTypingAggregator(time.Second, clock.AfterFunc, func(e TypingExpiry) {
		fired = append(fired, e)
	})
	return agg, clock, &fired
}

func TestTypingPulseReportsChangeOnly(t *testing.T) {
	agg, clock, _ := newTyping(t)

	assert.True(t, agg.Pulse("r1", alice, true))
	assert.False(t, agg.Pulse("r1", alice, true), "renewal is not a change")
	require.Len(t, clock.timers, 2)
	assert.True(t, clock.timers[0].stopped, "renewal cancels the old timer")
	assert.Equal(t, time.Second, clock.timers[1].d)

	assert.True(t, agg.Pulse("r1", alice, false))
	assert.False(t, agg.Pulse("r1", alice, false))
	assert.True(t, clock.timers[1].stopped)
	assert.Empty(t, agg.Typing("r1"))
}

func TestTypingExpiryClearsOnce(t *testing.T) {
	agg, clock, fired := newTyping(t)
	agg.Pulse("r1", alice, true)

	clock.fireActive()
	require.Len(t, *fired, 1)

	id, ok := agg.Expire((*fired)[0])
	require.True(t, ok)
	assert.Equal(t, alice, id)

	_, ok = agg.Expire((*fired)[0])
	assert.False(t, ok, "second expiry is ignored")
	assert.Empty(t, agg.Typing("r1"))
}

func TestTypingStaleExpiryIgnoredAfterRenewal(t *testing.T) {
	agg, clock, fired := newTyping(t)
	agg.Pulse("r1", alice, true)
	agg.Pulse("r1", alice, true)

	clock.fireAll()
	require.Len(t, *fired, 2)

	_, ok := agg.Expire((*fired)[0])
	assert.False(t, ok, "timer from the first pulse is stale")
	_, ok = agg.Expire((*fired)[1])
	assert.True(t, ok)
}

func TestTypingStaleExpiryIgnoredAfterStop(t *testing.T) {
	agg, clock, fired := newTyping(t)
	agg.Pulse("r1", alice, true)
	agg.Pulse("r1", alice, false)
	agg.Pulse("r1", alice, true)

	clock.fireAll()
	require.Len(t, *fired, 2)
	_, ok := agg.Expire((*fired)[0])
	assert.False(t, ok)
	_, ok = agg.Expire((*fired)[1])
	assert.True(t, ok)
}

func TestTypingForget(t *testing.T) {
	agg, clock, _ := newTyping(t)
	agg.Pulse("r1", alice, true)
	agg.Forget("r1", alice.UserID)
	assert.True(t, clock.timers[0].stopped)
	assert.Empty(t, agg.Typing("r1"))
	agg.Forget("r2", alice.UserID)
}

func TestTypingDropStopsRoomTimers(t *testing.T) {
	agg, clock, _ := newTyping(t)
	bob := domain.Identity{UserID: "u-bob", DisplayName: "Bob"}
	agg.Pulse("r1", alice, true)
	agg.Pulse("r1", bob, true)
	agg.Pulse("r2", alice, true)

	agg.Drop("r1")
	assert.True(t, clock.timers[0].stopped)
	assert.True(t, clock.timers[1].stopped)
	assert.False(t, clock.timers[2].stopped)
	assert.Empty(t, agg.Typing("r1"))
	assert.Len(t, agg.Typing("r2"), 1)
}

func TestTypingDefaultDebounce(t *testing.T) {
	clock := &fakeClock{}
	agg := NewTypingAggregator(0, clock.AfterFunc, nil)
	agg.Pulse("r1", alice, true)
	require.Len(t, clock.timers, 1)
	assert.Equal(t, DefaultTypingDebounce, clock.timers[0].d)
	clock.fireActive()
}

func TestTypingRoomsAreIndependent(t *testing.T) {
	agg, _, _ := newTyping(t)
	bob := domain.Identity{UserID: "u-bob", DisplayName: "Bob"}
	agg.Pulse("r1", alice, true)
	agg.Pulse("r2", bob, true)
	assert.Equal(t, []domain.Identity{alice}, agg.Typing("r1"))
	assert.Equal(t, []domain.Identity{bob}, agg.Typing("r2"))
}
