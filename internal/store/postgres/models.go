package postgres

import (
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/uptrace/bun"
)

// A message represents an archived chat message.
type message struct {
	bun.BaseModel `bun:"table:messages"`

	ID          string            `bun:",pk"`
	RoomID      string            `bun:"room_id,notnull"`
	UserID      string            `bun:"user_id,notnull"`
	DisplayName string            `bun:"display_name,notnull"`
	Content     string            `bun:",notnull"`
	Type        string            `bun:",notnull,default:'text'"`
	CreatedAt   time.Time         `bun:",notnull"`
	IsPinned    bool              `bun:"is_pinned,notnull,default:false"`
	Reactions   []domain.Reaction `bun:"reactions,type:jsonb"`
}

// A roomMember grants a user a role in one room.
type roomMember struct {
	bun.BaseModel `bun:"table:room_members"`

	RoomID string `bun:"room_id,pk"`
	UserID string `bun:"user_id,pk"`
	Role   string `bun:",notnull,default:'member'"`
}

func fromDomain(m domain.Message) *message {
	reactions := m.Reactions
	if reactions == nil {
		reactions = []domain.Reaction{}
	}
	return &message{
		ID:          m.ID,
		RoomID:      string(m.RoomID),
		UserID:      string(m.UserID),
		DisplayName: m.DisplayName,
		Content:     m.Content,
		Type:        string(m.Type),
		CreatedAt:   m.CreatedAt,
		IsPinned:    m.IsPinned,
		Reactions:   reactions,
	}
}

func (m message) DomainMessage() domain.Message {
	reactions := make([]domain.Reaction, len(m.Reactions))
	copy(reactions, m.Reactions)
	return domain.Message{
		ID:          m.ID,
		RoomID:      domain.RoomID(m.RoomID),
		UserID:      domain.UserID(m.UserID),
		DisplayName: m.DisplayName,
		Content:     m.Content,
		Type:        domain.MessageType(m.Type),
		CreatedAt:   m.CreatedAt,
		IsPinned:    m.IsPinned,
		Reactions:   reactions,
	}
}
