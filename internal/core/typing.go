package core

import (
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

// DefaultTypingDebounce is how long a typing flag survives without a pulse.
const DefaultTypingDebounce = time.Second

// TypingExpiry is posted back by an expired timer. Gen lets the aggregator
// ignore timers that fired after the flag was renewed or cleared.
type TypingExpiry struct {
	Room domain.RoomID
	User domain.UserID
	Gen  uint64
}

type typingEntry struct {
	identity domain.Identity
	gen      uint64
	timer    Timer
}

// TypingAggregator tracks, per room, who is currently typing.
// Timers never touch state directly: they call expire with a TypingExpiry
// which the owner feeds back through Expire on its own goroutine.
type TypingAggregator struct {
	rooms     map[domain.RoomID]map[domain.UserID]*typingEntry
	debounce  time.Duration
	afterFunc AfterFunc
	expire    func(TypingExpiry)
	gen       uint64
}

func NewTypingAggregator(debounce time.Duration, afterFunc AfterFunc, expire func(TypingExpiry)) *TypingAggregator {
	if debounce <= 0 {
		debounce = DefaultTypingDebounce
	}
	if afterFunc == nil {
		afterFunc = StdAfterFunc
	}
	return &TypingAggregator{
		rooms:     make(map[domain.RoomID]map[domain.UserID]*typingEntry),
		debounce:  debounce,
		afterFunc: afterFunc,
		expire:    expire,
	}
}

// Ensure creates an empty typing set for room.
func (t *TypingAggregator) Ensure(room domain.RoomID) {
	if _, ok := t.rooms[room]; !ok {
		t.rooms[room] = make(map[domain.UserID]*typingEntry)
	}
}

// Pulse applies a client typing signal. It reports whether the room's typing
// set changed, which is the only case worth broadcasting.
func (t *TypingAggregator) Pulse(room domain.RoomID, id domain.Identity, isTyping bool) bool {
	if !isTyping {
		return t.remove(room, id.UserID)
	}

	t.Ensure(room)
	set := t.rooms[room]
	e, present := set[id.UserID]
	if present {
		e.timer.Stop()
	} else {
		e = &typingEntry{identity: id}
		set[id.UserID] = e
	}
	t.gen++
	e.gen = t.gen
	exp := TypingExpiry{Room: room, User: id.UserID, Gen: e.gen}
	e.timer = t.afterFunc(t.debounce, func() {
		if t.expire != nil {
			t.expire(exp)
		}
	})
	return !present
}

// Expire clears the flag named by exp if it was not renewed since.
// It returns the identity that stopped typing.
func (t *TypingAggregator) Expire(exp TypingExpiry) (domain.Identity, bool) {
	e, ok := t.rooms[exp.Room][exp.User]
	if !ok || e.gen != exp.Gen {
		return domain.Identity{}, false
	}
	delete(t.rooms[exp.Room], exp.User)
	return e.identity, true
}

// Forget drops a typing flag without reporting it.
func (t *TypingAggregator) Forget(room domain.RoomID, user domain.UserID) {
	t.remove(room, user)
}

// Drop stops every timer of room and forgets its typing set.
func (t *TypingAggregator) Drop(room domain.RoomID) {
	for _, e := range t.rooms[room] {
		e.timer.Stop()
	}
	delete(t.rooms, room)
}

// Typing lists identities currently typing in room.
func (t *TypingAggregator) Typing(room domain.RoomID) []domain.Identity {
	out := make([]domain.Identity, 0, len(t.rooms[room]))
	for _, e := range t.rooms[room] {
		out = append(out, e.identity)
	}
	return out
}

func (t *TypingAggregator) remove(room domain.RoomID, user domain.UserID) bool {
	set, ok := t.rooms[room]
	if !ok {
		return false
	}
	e, ok := set[user]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(set, user)
	return true
}
