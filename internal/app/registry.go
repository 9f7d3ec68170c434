package app

import (
	"context"
	"fmt"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Connection is one live client session as seen by the registry.
type Connection struct {
	ID       domain.ConnectionID
	Identity domain.Identity
	Signal   core.SignalConnection
	Cancel   context.CancelFunc
	// rooms keeps join order so teardown broadcasts are deterministic.
	rooms []domain.RoomID
}

// Rooms returns the rooms the connection has joined, in join order.
func (c *Connection) Rooms() []domain.RoomID {
	out := make([]domain.RoomID, len(c.rooms))
	copy(out, c.rooms)
	return out
}

// Registry maps identities to live connections. It is owned by the
// orchestrator loop and is not safe for concurrent use.
type Registry struct {
	conns  map[domain.ConnectionID]*Connection
	byUser map[domain.UserID]domain.ConnectionID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[domain.ConnectionID]*Connection),
		byUser: make(map[domain.UserID]domain.ConnectionID),
	}
}

// Admit registers a connection. A later connection for the same user takes
// over the user mapping; the earlier one stays open and keeps its rooms.
func (r *Registry) Admit(id domain.ConnectionID, identity domain.Identity, signal core.SignalConnection, cancel context.CancelFunc) (*Connection, error) {
	if id == "" || identity.UserID == "" || identity.DisplayName == "" {
		return nil, fmt.Errorf("admit %q: %w", id, domain.ErrInvalidHandshake)
	}
	if _, dup := r.conns[id]; dup {
		return nil, fmt.Errorf("admit %q: connection already registered: %w", id, domain.ErrInvalidHandshake)
	}
	c := &Connection{ID: id, Identity: identity, Signal: signal, Cancel: cancel}
	r.conns[id] = c
	if prev, ok := r.byUser[identity.UserID]; ok && prev != id {
		log.Info().Str("module", "app.registry").Str("user", string(identity.UserID)).Str("prev", string(prev)).Str("conn", string(id)).Msg("user reconnected, mapping replaced")
	}
	r.byUser[identity.UserID] = id
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(identity.UserID)).Msg("admitted connection")
	return c, nil
}

// Lookup resolves the user's current connection.
func (r *Registry) Lookup(user domain.UserID) (domain.ConnectionID, bool) {
	id, ok := r.byUser[user]
	return id, ok
}

func (r *Registry) Get(id domain.ConnectionID) (*Connection, bool) {
	c, ok := r.conns[id]
	return c, ok
}

// Release forgets the connection and returns the rooms it had joined.
// Releasing an unknown connection returns nil.
func (r *Registry) Release(id domain.ConnectionID) []domain.RoomID {
	c, ok := r.conns[id]
	if !ok {
		return nil
	}
	delete(r.conns, id)
	if cur, ok := r.byUser[c.Identity.UserID]; ok && cur == id {
		delete(r.byUser, c.Identity.UserID)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(c.Identity.UserID)).Int("rooms", len(c.rooms)).Msg("released connection")
	return c.Rooms()
}

// MarkJoined records room membership for the connection.
func (r *Registry) MarkJoined(id domain.ConnectionID, room domain.RoomID) bool {
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	for _, existing := range c.rooms {
		if existing == room {
			return true
		}
	}
	c.rooms = append(c.rooms, room)
	return true
}

// MarkLeft drops room from the connection's membership.
func (r *Registry) MarkLeft(id domain.ConnectionID, room domain.RoomID) {
	c, ok := r.conns[id]
	if !ok {
		return
	}
	for i, existing := range c.rooms {
		if existing == room {
			c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
			return
		}
	}
}

// Cancel stops the connection's pumps. The adapter then reports the
// disconnect through the normal path.
func (r *Registry) Cancel(id domain.ConnectionID) bool {
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	if c.Cancel != nil {
		c.Cancel()
	}
	if c.Signal != nil {
		c.Signal.Close()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}

func (r *Registry) Len() int {
	return len(r.conns)
}
