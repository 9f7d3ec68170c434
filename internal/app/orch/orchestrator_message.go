package orch

import (
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/domain"
)

func (o *Orchestrator) handleSendMessage(e SendMessage) {
	o.appendMessage(e.Conn, e.Room, e.Content, e.Type, "sendMessage")
}

func (o *Orchestrator) handleFileUploaded(e FileUploaded) {
	typ := e.FileType
	if typ == "" {
		typ = domain.MessageFile
	}
	o.appendMessage(e.Conn, e.Room, e.URL, typ, "fileUploaded")
}

func (o *Orchestrator) appendMessage(conn domain.ConnectionID, room domain.RoomID, content string, typ domain.MessageType, event string) {
	c, ok := o.member(conn, room)
	if !ok {
		o.reject(conn, event, domain.ErrNotFound)
		return
	}
	msg, err := o.Messages.Append(room, c.Identity, content, typ)
	if err != nil {
		o.reject(conn, event, err)
		return
	}
	// Sending implies the author stopped typing.
	if o.Typing.Pulse(room, c.Identity, false) {
		o.Out.ToRoom(room, EvUserTyping, userTypingPayload{Username: c.Identity.DisplayName, UserID: c.Identity.UserID})
	}
	o.Out.ToRoom(room, EvNewMessage, msg)
	o.publish(app.Record{Event: app.RecordNewMessage, Room: room, Message: &msg, MessageID: msg.ID})
}

func (o *Orchestrator) handlePin(e PinMessage) {
	if _, ok := o.member(e.Conn, e.Room); !ok {
		o.reject(e.Conn, "pinMessage", domain.ErrNotFound)
		return
	}
	msg, err := o.Messages.Pin(e.Room, e.MessageID, e.Role)
	if err != nil {
		o.reject(e.Conn, "pinMessage", err)
		return
	}
	o.Out.ToRoom(e.Room, EvMessagePinned, messagePinnedPayload{MessageID: msg.ID, IsPinned: msg.IsPinned})
	o.publish(app.Record{Event: app.RecordMessagePinned, Room: e.Room, Message: &msg, MessageID: msg.ID})
}

func (o *Orchestrator) handleDelete(e DeleteMessage) {
	if _, ok := o.member(e.Conn, e.Room); !ok {
		o.reject(e.Conn, "deleteMessage", domain.ErrNotFound)
		return
	}
	if err := o.Messages.Delete(e.Room, e.MessageID, e.Role); err != nil {
		o.reject(e.Conn, "deleteMessage", err)
		return
	}
	o.Out.ToRoom(e.Room, EvMessageDeleted, messageDeletedPayload{MessageID: e.MessageID})
	o.publish(app.Record{Event: app.RecordMessageDeleted, Room: e.Room, MessageID: e.MessageID})
}

func (o *Orchestrator) handleReaction(e AddReaction) {
	c, ok := o.member(e.Conn, e.Room)
	if !ok {
		o.reject(e.Conn, "addReaction", domain.ErrNotFound)
		return
	}
	reactions, err := o.Messages.React(e.Room, e.MessageID, e.Emoji, c.Identity.UserID)
	if err != nil {
		o.reject(e.Conn, "addReaction", err)
		return
	}
	o.Out.ToRoom(e.Room, EvReactionUpdated, reactionUpdatedPayload{MessageID: e.MessageID, Reactions: reactions})
	o.publish(app.Record{Event: app.RecordReactionUpdated, Room: e.Room, MessageID: e.MessageID, Reactions: reactions})
}
