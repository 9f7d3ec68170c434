package orch

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// Outbound event names.
const (
	EvLoadMessages    = "loadMessages"
	EvNewMessage      = "newMessage"
	EvMessagePinned   = "messagePinned"
	EvMessageDeleted  = "messageDeleted"
	EvReactionUpdated = "reactionUpdated"
	EvUpdateUsers     = "updateUsers"
	EvUserJoined      = "userJoined"
	EvUserLeft        = "userLeft"
	EvUserTyping      = "userTyping"
	EvIncomingCall    = "incomingCall"
	EvCallResponse    = "callResponse"
	EvCallEnded       = "callEnded"
	EvError           = "error"
)

// Event is the closed set of inputs the loop understands. Each variant is
// routed to exactly one handler by Dispatch.
type Event interface {
	isEvent()
}

// Connect admits a new connection. The outcome is reported on Done.
type Connect struct {
	Conn     domain.ConnectionID
	Identity domain.Identity
	Signal   core.SignalConnection
	Cancel   func()
	Done     chan<- error
}

type Disconnect struct {
	Conn domain.ConnectionID
}

type JoinRoom struct {
	Conn domain.ConnectionID
	Room domain.RoomID
}

type LeaveRoom struct {
	Conn domain.ConnectionID
	Room domain.RoomID
}

type SendMessage struct {
	Conn    domain.ConnectionID
	Room    domain.RoomID
	Content string
	Type    domain.MessageType
}

type FileUploaded struct {
	Conn     domain.ConnectionID
	Room     domain.RoomID
	URL      string
	FileType domain.MessageType
}

// PinMessage carries the actor's role, resolved before submission.
type PinMessage struct {
	Conn      domain.ConnectionID
	Room      domain.RoomID
	MessageID string
	Role      domain.Role
}

type DeleteMessage struct {
	Conn      domain.ConnectionID
	Room      domain.RoomID
	MessageID string
	Role      domain.Role
}

type AddReaction struct {
	Conn      domain.ConnectionID
	Room      domain.RoomID
	MessageID string
	Emoji     string
}

type Typing struct {
	Conn     domain.ConnectionID
	Room     domain.RoomID
	IsTyping bool
}

// CallUser rings one or more targets. Several targets make a group call:
// independent handshakes started in the same step.
type CallUser struct {
	Conn    domain.ConnectionID
	Targets []domain.UserID
	Type    domain.CallType
	Room    domain.RoomID
	SDP     json.RawMessage
}

type AnswerCall struct {
	Conn     domain.ConnectionID
	To       domain.UserID
	Accepted bool
	Room     domain.RoomID
	SDP      json.RawMessage
}

type EndCall struct {
	Conn domain.ConnectionID
	To   domain.UserID
}

// EvictRoom removes every member from a room and drops its log.
type EvictRoom struct {
	Room domain.RoomID
}

// Query runs Fn on the loop. Used for consistent reads from outside.
type Query struct {
	Fn   func()
	Done chan struct{}
}

type typingExpired struct {
	exp core.TypingExpiry
}

func (Connect) isEvent()       {}
func (Disconnect) isEvent()    {}
func (JoinRoom) isEvent()      {}
func (LeaveRoom) isEvent()     {}
func (SendMessage) isEvent()   {}
func (FileUploaded) isEvent()  {}
func (PinMessage) isEvent()    {}
func (DeleteMessage) isEvent() {}
func (AddReaction) isEvent()   {}
func (Typing) isEvent()        {}
func (CallUser) isEvent()      {}
func (AnswerCall) isEvent()    {}
func (EndCall) isEvent()       {}
func (EvictRoom) isEvent()     {}
func (Query) isEvent()         {}
func (typingExpired) isEvent() {}

type presencePayload struct {
	Username string        `json:"username"`
	UserID   domain.UserID `json:"userId"`
}

type messagePinnedPayload struct {
	MessageID string `json:"messageId"`
	IsPinned  bool   `json:"isPinned"`
}

type messageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type reactionUpdatedPayload struct {
	MessageID string            `json:"messageId"`
	Reactions []domain.Reaction `json:"reactions"`
}

type userTypingPayload struct {
	Username string        `json:"username"`
	UserID   domain.UserID `json:"userId"`
	IsTyping bool          `json:"isTyping"`
}

type incomingCallPayload struct {
	FromID   domain.UserID   `json:"fromId"`
	FromName string          `json:"fromName"`
	Type     domain.CallType `json:"type"`
	RoomID   domain.RoomID   `json:"roomId,omitempty"`
	SDP      json.RawMessage `json:"sdp,omitempty"`
}

type callResponsePayload struct {
	Accepted bool            `json:"accepted"`
	FromID   domain.UserID   `json:"fromId"`
	RoomID   domain.RoomID   `json:"roomId,omitempty"`
	SDP      json.RawMessage `json:"sdp,omitempty"`
}

type callEndedPayload struct {
	FromID domain.UserID `json:"fromId"`
}

type errorPayload struct {
	Event    string        `json:"event"`
	Error    string        `json:"error"`
	TargetID domain.UserID `json:"targetId,omitempty"`
}
