package core

import (
	"sort"

	"github.com/dkeye/Chat/internal/domain"
)

type callKey struct {
	from domain.UserID
	to   domain.UserID
}

// CallCoordinator tracks call signaling sessions between pairs of users.
// It never touches media.
type CallCoordinator struct {
	dir      Directory
	sessions map[callKey]*domain.CallSession
}

func NewCallCoordinator(dir Directory) *CallCoordinator {
	return &CallCoordinator{
		dir:      dir,
		sessions: make(map[callKey]*domain.CallSession),
	}
}

// Initiate opens a ringing session from caller to target. A repeated call to
// the same target replaces the previous attempt.
func (c *CallCoordinator) Initiate(from domain.Identity, fromConn domain.ConnectionID, target domain.UserID, typ domain.CallType) (domain.CallSession, error) {
	toConn, ok := c.dir.Lookup(target)
	if !ok {
		return domain.CallSession{}, domain.ErrTargetOffline
	}
	if typ != domain.CallVideo {
		typ = domain.CallAudio
	}
	s := &domain.CallSession{
		Type:     typ,
		From:     from,
		FromConn: fromConn,
		To:       target,
		ToConn:   toConn,
		Status:   domain.CallCalling,
	}
	c.sessions[callKey{from: from.UserID, to: target}] = s
	return *s, nil
}

// Respond answers a ringing call placed by caller to callee. ok is false when
// no such call is ringing. A declined call is discarded.
func (c *CallCoordinator) Respond(callee domain.UserID, caller domain.UserID, accepted bool) (domain.CallSession, bool) {
	key := callKey{from: caller, to: callee}
	s, ok := c.sessions[key]
	if !ok || s.Status != domain.CallCalling {
		return domain.CallSession{}, false
	}
	if accepted {
		s.Status = domain.CallActive
		return *s, true
	}
	s.Status = domain.CallDeclined
	delete(c.sessions, key)
	return *s, true
}

// End tears down the call between user and peer, whoever placed it.
func (c *CallCoordinator) End(user, peer domain.UserID) (domain.CallSession, bool) {
	for _, key := range []callKey{{from: user, to: peer}, {from: peer, to: user}} {
		if s, ok := c.sessions[key]; ok {
			delete(c.sessions, key)
			s.Status = domain.CallEnded
			return *s, true
		}
	}
	return domain.CallSession{}, false
}

// EndForConnection ends every session that names conn as a party.
func (c *CallCoordinator) EndForConnection(conn domain.ConnectionID) []domain.CallSession {
	var out []domain.CallSession
	for key, s := range c.sessions {
		if !s.Involves(conn) {
			continue
		}
		delete(c.sessions, key)
		s.Status = domain.CallEnded
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From.UserID != out[j].From.UserID {
			return out[i].From.UserID < out[j].From.UserID
		}
		return out[i].To < out[j].To
	})
	return out
}

// Active returns the session between a and b, if any.
func (c *CallCoordinator) Active(a, b domain.UserID) (domain.CallSession, bool) {
	if s, ok := c.sessions[callKey{from: a, to: b}]; ok {
		return *s, true
	}
	if s, ok := c.sessions[callKey{from: b, to: a}]; ok {
		return *s, true
	}
	return domain.CallSession{}, false
}
