package domain

type ConnectionID string

const StatusOnline = "online"

// Member is the presence record of one connection inside one room.
// A user with two connections in a room has two members.
type Member struct {
	ConnectionID ConnectionID `json:"connectionId"`
	UserID       UserID       `json:"userId"`
	DisplayName  string       `json:"username"`
	Status       string       `json:"status"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(conn ConnectionID, id Identity) Member {
	return Member{
		ConnectionID: conn,
		UserID:       id.UserID,
		DisplayName:  id.DisplayName,
		Status:       StatusOnline,
	}
}
