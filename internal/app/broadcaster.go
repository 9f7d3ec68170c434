package app

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Envelope is the wire shape of every frame in both directions.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals an outbound event.
func Encode(event string, payload any) (core.Frame, error) {
	return json.Marshal(Envelope{Type: event, Payload: payload})
}

// Broadcaster delivers encoded events to connections. Delivery is a
// non-blocking enqueue; a full queue is resolved by the Policy.
type Broadcaster struct {
	reg      *Registry
	presence *core.PresenceTracker
	policy   Policy
}

func NewBroadcaster(reg *Registry, presence *core.PresenceTracker, policy Policy) *Broadcaster {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Broadcaster{reg: reg, presence: presence, policy: policy}
}

// ToRoom sends to every connection present in room, in join order.
// It returns the number of connections the frame was queued for.
func (b *Broadcaster) ToRoom(room domain.RoomID, event string, payload any) int {
	frame, err := Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", event).Msg("encode")
		return 0
	}
	sent := 0
	for _, conn := range b.presence.Connections(room) {
		if b.deliver(room, conn, frame) {
			sent++
		}
	}
	log.Debug().Str("module", "app.broadcast").Str("room", string(room)).Str("event", event).Int("sent_to", sent).Msg("room broadcast")
	return sent
}

// ToUser sends to the user's current connection. Offline users are skipped.
func (b *Broadcaster) ToUser(user domain.UserID, event string, payload any) bool {
	conn, ok := b.reg.Lookup(user)
	if !ok {
		log.Debug().Str("module", "app.broadcast").Str("user", string(user)).Str("event", event).Msg("user offline, dropped")
		return false
	}
	return b.ToConn(conn, event, payload)
}

// ToConn sends to a single connection.
func (b *Broadcaster) ToConn(conn domain.ConnectionID, event string, payload any) bool {
	frame, err := Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", event).Msg("encode")
		return false
	}
	return b.deliver("", conn, frame)
}

func (b *Broadcaster) deliver(room domain.RoomID, id domain.ConnectionID, frame core.Frame) bool {
	c, ok := b.reg.Get(id)
	if !ok || c.Signal == nil {
		return false
	}
	err := c.Signal.TrySend(frame)
	if err == nil {
		return true
	}
	switch b.policy.OnBackPressure(room, id) {
	case KickMember:
		log.Warn().Err(err).Str("module", "app.broadcast").Str("conn", string(id)).Msg("send failed, kicking connection")
		b.reg.Cancel(id)
	case DropFrame, NoAction:
		log.Warn().Err(err).Str("module", "app.broadcast").Str("conn", string(id)).Msg("send failed, frame dropped")
	}
	return false
}
