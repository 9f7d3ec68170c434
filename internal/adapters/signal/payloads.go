package signal

import "encoding/json"

type roomPayload struct {
	RoomID string `json:"roomId" validate:"required,max=128"`
}

type sendMessagePayload struct {
	RoomID  string `json:"roomId" validate:"required,max=128"`
	Message struct {
		Content string `json:"content" validate:"max=8192"`
		Type    string `json:"type" validate:"max=32"`
	} `json:"message"`
}

type fileUploadedPayload struct {
	RoomID   string `json:"roomId" validate:"required,max=128"`
	FileURL  string `json:"fileUrl" validate:"required,max=2048"`
	FileType string `json:"fileType" validate:"max=32"`
}

type messageRefPayload struct {
	RoomID    string `json:"roomId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=128"`
}

type reactionPayload struct {
	RoomID    string `json:"roomId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=128"`
	Emoji     string `json:"emoji" validate:"required,max=32"`
}

type typingPayload struct {
	RoomID   string `json:"roomId" validate:"required,max=128"`
	IsTyping bool   `json:"isTyping"`
}

type callUserPayload struct {
	TargetID  string          `json:"targetId" validate:"required_without=TargetIDs,max=128"`
	TargetIDs []string        `json:"targetIds" validate:"omitempty,max=32,dive,required,max=128"`
	Type      string          `json:"type" validate:"omitempty,oneof=audio video"`
	RoomID    string          `json:"roomId" validate:"max=128"`
	SDP       json.RawMessage `json:"sdp"`
}

type answerCallPayload struct {
	ToID     string          `json:"toId" validate:"required,max=128"`
	Accepted bool            `json:"accepted"`
	RoomID   string          `json:"roomId" validate:"max=128"`
	SDP      json.RawMessage `json:"sdp"`
}

type callEndedPayload struct {
	ToID string `json:"toId" validate:"required,max=128"`
}
