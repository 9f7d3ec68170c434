package domain

type RoomID string

// RoomInfo is a read-only view of a live room.
type RoomInfo struct {
	ID          RoomID `json:"id"`
	MemberCount int    `json:"member_count"`
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanModerate reports whether the role may pin or delete messages.
func (r Role) CanModerate() bool {
	return r == RoleOwner || r == RoleAdmin
}

func ParseRole(s string) Role {
	switch Role(s) {
	case RoleOwner, RoleAdmin:
		return Role(s)
	default:
		return RoleMember
	}
}
