package domain

import "time"

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

type Reaction struct {
	Emoji  string `json:"emoji"`
	UserID UserID `json:"user_id"`
}

type Message struct {
	ID          string      `json:"id"`
	RoomID      RoomID      `json:"room_id"`
	UserID      UserID      `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Content     string      `json:"content"`
	Type        MessageType `json:"type"`
	CreatedAt   time.Time   `json:"created_at"`
	IsPinned    bool        `json:"is_pinned"`
	Reactions   []Reaction  `json:"reactions"`
}

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	out := m
	out.Reactions = make([]Reaction, len(m.Reactions))
	copy(out.Reactions, m.Reactions)
	return out
}
