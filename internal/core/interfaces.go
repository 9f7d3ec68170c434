// Package core holds the per-room state machines of the chat coordinator.
// Nothing in this package is safe for concurrent use: every value is owned by
// the orchestrator loop and mutated only from it.
package core

import (
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

// Frame is an encoded outbound event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Timer is the part of *time.Timer the typing aggregator needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc adapts time.AfterFunc.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Directory resolves a user to its current connection.
type Directory interface {
	Lookup(user domain.UserID) (domain.ConnectionID, bool)
}
