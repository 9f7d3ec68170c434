package signal

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/domain"
)

func (ctl *SignalWSController) handleJoin(s *session, raw json.RawMessage) {
	var p roomPayload
	if !ctl.decode(s, "joinRoom", raw, &p) {
		return
	}
	ctl.submit(s, orch.JoinRoom{Conn: s.id, Room: domain.RoomID(p.RoomID)})
}

func (ctl *SignalWSController) handleLeave(s *session, raw json.RawMessage) {
	var p roomPayload
	if !ctl.decode(s, "leaveRoom", raw, &p) {
		return
	}
	ctl.submit(s, orch.LeaveRoom{Conn: s.id, Room: domain.RoomID(p.RoomID)})
}

func (ctl *SignalWSController) handleTyping(s *session, raw json.RawMessage) {
	var p typingPayload
	if !ctl.decode(s, "typing", raw, &p) {
		return
	}
	ctl.submit(s, orch.Typing{Conn: s.id, Room: domain.RoomID(p.RoomID), IsTyping: p.IsTyping})
}
