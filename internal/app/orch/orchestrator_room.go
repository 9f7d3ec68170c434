package orch

import (
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleConnect(e Connect) {
	_, err := o.Registry.Admit(e.Conn, e.Identity, e.Signal, e.Cancel)
	if e.Done != nil {
		e.Done <- err
	}
}

// handleDisconnect tears a connection down in a single step: registry, rooms,
// typing flags and open calls.
func (o *Orchestrator) handleDisconnect(e Disconnect) {
	c, ok := o.Registry.Get(e.Conn)
	if !ok {
		return
	}
	rooms := o.Registry.Release(e.Conn)
	for _, room := range rooms {
		o.leave(room, e.Conn, c.Identity)
	}
	for _, s := range o.Calls.EndForConnection(e.Conn) {
		peer := s.Peer(c.Identity.UserID)
		o.Out.ToUser(peer, EvCallEnded, callEndedPayload{FromID: c.Identity.UserID})
		log.Info().Str("module", "orch").Str("conn", string(e.Conn)).Str("peer", string(peer)).Msg("call ended by disconnect")
	}
	log.Info().Str("module", "orch").Str("conn", string(e.Conn)).Str("user", string(c.Identity.UserID)).Int("rooms", len(rooms)).Msg("disconnected")
}

func (o *Orchestrator) handleJoin(e JoinRoom) {
	c, ok := o.Registry.Get(e.Conn)
	if !ok {
		return
	}
	members, first := o.Presence.Join(e.Room, domain.NewMember(e.Conn, c.Identity))
	o.Messages.Ensure(e.Room)
	o.Typing.Ensure(e.Room)
	o.Registry.MarkJoined(e.Conn, e.Room)
	if first {
		log.Info().Str("module", "orch").Str("room", string(e.Room)).Msg("room initialized")
	}

	o.Out.ToConn(e.Conn, EvLoadMessages, o.Messages.Snapshot(e.Room))
	o.Out.ToRoom(e.Room, EvUpdateUsers, members)
	o.Out.ToRoom(e.Room, EvUserJoined, presencePayload{Username: c.Identity.DisplayName, UserID: c.Identity.UserID})
	log.Info().Str("module", "orch").Str("conn", string(e.Conn)).Str("room", string(e.Room)).Int("members", len(members)).Msg("joined room")
}

func (o *Orchestrator) handleLeave(e LeaveRoom) {
	c, ok := o.Registry.Get(e.Conn)
	if !ok {
		return
	}
	o.Registry.MarkLeft(e.Conn, e.Room)
	o.leave(e.Room, e.Conn, c.Identity)
}

// leave removes conn from room and tells the remaining members.
func (o *Orchestrator) leave(room domain.RoomID, conn domain.ConnectionID, id domain.Identity) {
	if _, ok := o.Presence.Leave(room, conn); !ok {
		return
	}
	// The typing flag belongs to the user. A sibling connection still in the
	// room keeps it, and its timer still clears it.
	if !o.Presence.HasUser(room, id.UserID) {
		o.Typing.Forget(room, id.UserID)
	}
	o.Out.ToRoom(room, EvUpdateUsers, o.Presence.Members(room))
	o.Out.ToRoom(room, EvUserLeft, presencePayload{Username: id.DisplayName, UserID: id.UserID})
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("room", string(room)).Msg("left room")
}

func (o *Orchestrator) handleEvict(e EvictRoom) {
	for _, conn := range o.Presence.Connections(e.Room) {
		c, ok := o.Registry.Get(conn)
		if !ok {
			continue
		}
		o.Registry.MarkLeft(conn, e.Room)
		o.leave(e.Room, conn, c.Identity)
		o.Out.ToConn(conn, EvUserLeft, presencePayload{Username: c.Identity.DisplayName, UserID: c.Identity.UserID})
	}
	o.Messages.Drop(e.Room)
	o.Typing.Drop(e.Room)
	o.Presence.Forget(e.Room)
	o.publish(app.Record{Event: app.RecordRoomEvicted, Room: e.Room})
	log.Info().Str("module", "orch").Str("room", string(e.Room)).Msg("room evicted")
}

// member resolves the sending connection and checks it has joined room.
func (o *Orchestrator) member(conn domain.ConnectionID, room domain.RoomID) (*app.Connection, bool) {
	c, ok := o.Registry.Get(conn)
	if !ok || !o.Presence.Has(room, conn) {
		return nil, false
	}
	return c, true
}

// Rooms lists live rooms. Call it through Do.
func (o *Orchestrator) Rooms() []domain.RoomInfo {
	return o.Presence.Rooms()
}
