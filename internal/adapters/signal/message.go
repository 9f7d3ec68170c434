package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSendMessage(s *session, raw json.RawMessage) {
	var p sendMessagePayload
	if !ctl.decode(s, "sendMessage", raw, &p) {
		return
	}
	ctl.submit(s, orch.SendMessage{
		Conn:    s.id,
		Room:    domain.RoomID(p.RoomID),
		Content: p.Message.Content,
		Type:    domain.MessageType(p.Message.Type),
	})
}

func (ctl *SignalWSController) handleFileUploaded(s *session, raw json.RawMessage) {
	var p fileUploadedPayload
	if !ctl.decode(s, "fileUploaded", raw, &p) {
		return
	}
	ctl.submit(s, orch.FileUploaded{
		Conn:     s.id,
		Room:     domain.RoomID(p.RoomID),
		URL:      p.FileURL,
		FileType: domain.MessageType(p.FileType),
	})
}

func (ctl *SignalWSController) handlePin(s *session, raw json.RawMessage) {
	var p messageRefPayload
	if !ctl.decode(s, "pinMessage", raw, &p) {
		return
	}
	room := domain.RoomID(p.RoomID)
	ctl.submit(s, orch.PinMessage{Conn: s.id, Room: room, MessageID: p.MessageID, Role: ctl.roleOf(s, room)})
}

func (ctl *SignalWSController) handleDelete(s *session, raw json.RawMessage) {
	var p messageRefPayload
	if !ctl.decode(s, "deleteMessage", raw, &p) {
		return
	}
	room := domain.RoomID(p.RoomID)
	ctl.submit(s, orch.DeleteMessage{Conn: s.id, Room: room, MessageID: p.MessageID, Role: ctl.roleOf(s, room)})
}

func (ctl *SignalWSController) handleReaction(s *session, raw json.RawMessage) {
	var p reactionPayload
	if !ctl.decode(s, "addReaction", raw, &p) {
		return
	}
	ctl.submit(s, orch.AddReaction{Conn: s.id, Room: domain.RoomID(p.RoomID), MessageID: p.MessageID, Emoji: p.Emoji})
}

// roleOf resolves the actor's room role before the event enters the loop.
// Lookup failures degrade to a plain member.
func (ctl *SignalWSController) roleOf(s *session, room domain.RoomID) domain.Role {
	ctx, cancel := context.WithTimeout(s.ctx, roleLookupTimeout)
	defer cancel()
	role, err := ctl.Roles.RoleOf(ctx, room, s.identity.UserID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", string(room)).Str("user", string(s.identity.UserID)).Msg("role lookup failed")
		return domain.RoleMember
	}
	return role
}
