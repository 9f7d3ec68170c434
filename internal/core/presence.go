package core

import (
	"sort"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomPresence struct {
	order   []domain.ConnectionID
	members map[domain.ConnectionID]domain.Member
}

// PresenceTracker keeps, per room, the connections currently joined and
// their visible status. Members are kept in join order.
type PresenceTracker struct {
	rooms map[domain.RoomID]*roomPresence
	// seen remembers every room joined at least once in this process.
	seen map[domain.RoomID]struct{}
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		rooms: make(map[domain.RoomID]*roomPresence),
		seen:  make(map[domain.RoomID]struct{}),
	}
}

// Join adds a member for m.ConnectionID and returns the full member list.
// firstJoin is true only for the first join of the room in this process.
// Joining twice from the same connection keeps a single record.
func (p *PresenceTracker) Join(room domain.RoomID, m domain.Member) (members []domain.Member, firstJoin bool) {
	_, known := p.seen[room]
	if !known {
		p.seen[room] = struct{}{}
	}

	rp, ok := p.rooms[room]
	if !ok {
		rp = &roomPresence{members: make(map[domain.ConnectionID]domain.Member)}
		p.rooms[room] = rp
	}
	if _, dup := rp.members[m.ConnectionID]; !dup {
		rp.order = append(rp.order, m.ConnectionID)
	}
	rp.members[m.ConnectionID] = m

	log.Debug().Str("module", "core.presence").Str("room", string(room)).Str("conn", string(m.ConnectionID)).Msg("member joined")
	return p.Members(room), !known
}

// Leave removes the member for conn. It reports false when there was none.
func (p *PresenceTracker) Leave(room domain.RoomID, conn domain.ConnectionID) (domain.Member, bool) {
	rp, ok := p.rooms[room]
	if !ok {
		return domain.Member{}, false
	}
	m, ok := rp.members[conn]
	if !ok {
		return domain.Member{}, false
	}
	delete(rp.members, conn)
	for i, c := range rp.order {
		if c == conn {
			rp.order = append(rp.order[:i], rp.order[i+1:]...)
			break
		}
	}
	if len(rp.order) == 0 {
		delete(p.rooms, room)
	}

	log.Debug().Str("module", "core.presence").Str("room", string(room)).Str("conn", string(conn)).Msg("member left")
	return m, true
}

// Forget removes every trace of room, so the next join is a first join again.
func (p *PresenceTracker) Forget(room domain.RoomID) {
	delete(p.rooms, room)
	delete(p.seen, room)
}

// HasUser reports whether any connection of user is present in room.
func (p *PresenceTracker) HasUser(room domain.RoomID, user domain.UserID) bool {
	rp, ok := p.rooms[room]
	if !ok {
		return false
	}
	for _, m := range rp.members {
		if m.UserID == user {
			return true
		}
	}
	return false
}

// Members returns a copy of the room's member list in join order.
func (p *PresenceTracker) Members(room domain.RoomID) []domain.Member {
	rp, ok := p.rooms[room]
	if !ok {
		return []domain.Member{}
	}
	out := make([]domain.Member, 0, len(rp.order))
	for _, c := range rp.order {
		out = append(out, rp.members[c])
	}
	return out
}

// Connections returns the connections present in room, in join order.
func (p *PresenceTracker) Connections(room domain.RoomID) []domain.ConnectionID {
	rp, ok := p.rooms[room]
	if !ok {
		return nil
	}
	out := make([]domain.ConnectionID, len(rp.order))
	copy(out, rp.order)
	return out
}

// Has reports whether conn is present in room.
func (p *PresenceTracker) Has(room domain.RoomID, conn domain.ConnectionID) bool {
	rp, ok := p.rooms[room]
	if !ok {
		return false
	}
	_, ok = rp.members[conn]
	return ok
}

// Rooms lists rooms that currently have members, sorted by id.
func (p *PresenceTracker) Rooms() []domain.RoomInfo {
	out := make([]domain.RoomInfo, 0, len(p.rooms))
	for id, rp := range p.rooms {
		out = append(out, domain.RoomInfo{ID: id, MemberCount: len(rp.order)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
