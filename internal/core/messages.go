package core

import (
	"strings"
	"time"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/google/uuid"
)

// DefaultHistoryLimit caps a room's working set when no limit is configured.
const DefaultHistoryLimit = 500

type roomLog struct {
	order []*domain.Message
	byID  map[string]*domain.Message
}

// MessageLog is the live, per-room ordered sequence of messages.
// It is a working set for joining clients, not the system of record.
type MessageLog struct {
	rooms map[domain.RoomID]*roomLog
	limit int
	now   func() time.Time
	newID func() string
}

type MessageLogOption func(*MessageLog)

// WithHistoryLimit bounds each room to the n most recent messages.
func WithHistoryLimit(n int) MessageLogOption {
	return func(l *MessageLog) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MessageLogOption {
	return func(l *MessageLog) { l.now = now }
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(gen func() string) MessageLogOption {
	return func(l *MessageLog) { l.newID = gen }
}

func NewMessageLog(opts ...MessageLogOption) *MessageLog {
	l := &MessageLog{
		rooms: make(map[domain.RoomID]*roomLog),
		limit: DefaultHistoryLimit,
		now:   time.Now,
		newID: newMessageID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// newMessageID returns a time-ordered uuid with the "msg-" prefix.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "msg-" + uuid.NewString()
	}
	return "msg-" + id.String()
}

// Ensure creates an empty log for room if it has none yet.
func (l *MessageLog) Ensure(room domain.RoomID) {
	if _, ok := l.rooms[room]; !ok {
		l.rooms[room] = &roomLog{byID: make(map[string]*domain.Message)}
	}
}

// Append stores a new message authored by author. An empty type means text.
func (l *MessageLog) Append(room domain.RoomID, author domain.Identity, content string, typ domain.MessageType) (domain.Message, error) {
	if typ == "" {
		typ = domain.MessageText
	}
	if typ == domain.MessageText && strings.TrimSpace(content) == "" {
		return domain.Message{}, domain.ErrEmptyContent
	}
	l.Ensure(room)
	rl := l.rooms[room]

	id := l.newID()
	for _, dup := rl.byID[id]; dup; _, dup = rl.byID[id] {
		id = l.newID()
	}

	m := &domain.Message{
		ID:          id,
		RoomID:      room,
		UserID:      author.UserID,
		DisplayName: author.DisplayName,
		Content:     content,
		Type:        typ,
		CreatedAt:   l.now().UTC(),
		Reactions:   []domain.Reaction{},
	}
	rl.order = append(rl.order, m)
	rl.byID[id] = m

	if over := len(rl.order) - l.limit; over > 0 {
		for _, old := range rl.order[:over] {
			delete(rl.byID, old.ID)
		}
		rl.order = append([]*domain.Message(nil), rl.order[over:]...)
	}
	return m.Clone(), nil
}

// Pin marks a message as pinned. Unknown ids fail with ErrNotFound whatever
// the role.
func (l *MessageLog) Pin(room domain.RoomID, messageID string, role domain.Role) (domain.Message, error) {
	m, err := l.find(room, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !role.CanModerate() {
		return domain.Message{}, domain.ErrForbidden
	}
	m.IsPinned = true
	return m.Clone(), nil
}

// Delete removes a message from the log entirely.
func (l *MessageLog) Delete(room domain.RoomID, messageID string, role domain.Role) error {
	if _, err := l.find(room, messageID); err != nil {
		return err
	}
	if !role.CanModerate() {
		return domain.ErrForbidden
	}
	rl := l.rooms[room]
	delete(rl.byID, messageID)
	for i, m := range rl.order {
		if m.ID == messageID {
			rl.order = append(rl.order[:i], rl.order[i+1:]...)
			break
		}
	}
	return nil
}

// React toggles the (user, emoji) reaction on a message and returns the
// resulting reaction list.
func (l *MessageLog) React(room domain.RoomID, messageID, emoji string, user domain.UserID) ([]domain.Reaction, error) {
	m, err := l.find(room, messageID)
	if err != nil {
		return nil, err
	}
	removed := false
	for i, r := range m.Reactions {
		if r.Emoji == emoji && r.UserID == user {
			m.Reactions = append(m.Reactions[:i:i], m.Reactions[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		m.Reactions = append(m.Reactions, domain.Reaction{Emoji: emoji, UserID: user})
	}
	out := make([]domain.Reaction, len(m.Reactions))
	copy(out, m.Reactions)
	return out, nil
}

// Snapshot returns copies of every message in room, in creation order.
func (l *MessageLog) Snapshot(room domain.RoomID) []domain.Message {
	rl, ok := l.rooms[room]
	if !ok {
		return []domain.Message{}
	}
	out := make([]domain.Message, 0, len(rl.order))
	for _, m := range rl.order {
		out = append(out, m.Clone())
	}
	return out
}

// Drop forgets a room's log.
func (l *MessageLog) Drop(room domain.RoomID) {
	delete(l.rooms, room)
}

func (l *MessageLog) find(room domain.RoomID, messageID string) (*domain.Message, error) {
	rl, ok := l.rooms[room]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m, ok := rl.byID[messageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}
