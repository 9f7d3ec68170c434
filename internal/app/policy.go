package app

import "github.com/dkeye/Chat/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, conn domain.ConnectionID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, domain.ConnectionID) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the frame and keeps the connection.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(domain.RoomID, domain.ConnectionID) BackpressureAction {
	return DropFrame
}
