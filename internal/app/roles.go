package app

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
)

// RoleResolver looks up a user's role in a room. It may do I/O and must be
// called before an event enters the orchestrator loop.
type RoleResolver interface {
	RoleOf(ctx context.Context, room domain.RoomID, user domain.UserID) (domain.Role, error)
}

// StaticRoles grants admin to a fixed set of users and a default role to
// everyone else.
type StaticRoles struct {
	Default domain.Role
	Admins  map[domain.UserID]struct{}
}

func NewStaticRoles(def string, admins []string) StaticRoles {
	s := StaticRoles{
		Default: domain.ParseRole(def),
		Admins:  make(map[domain.UserID]struct{}, len(admins)),
	}
	for _, a := range admins {
		s.Admins[domain.UserID(a)] = struct{}{}
	}
	return s
}

func (s StaticRoles) RoleOf(_ context.Context, _ domain.RoomID, user domain.UserID) (domain.Role, error) {
	if _, ok := s.Admins[user]; ok {
		return domain.RoleAdmin, nil
	}
	if s.Default == "" {
		return domain.RoleMember, nil
	}
	return s.Default, nil
}

// FallbackRoles asks Primary first and uses Fallback when it fails or
// reports a plain member.
type FallbackRoles struct {
	Primary  RoleResolver
	Fallback RoleResolver
}

func (f FallbackRoles) RoleOf(ctx context.Context, room domain.RoomID, user domain.UserID) (domain.Role, error) {
	role, err := f.Primary.RoleOf(ctx, room, user)
	if err == nil && role.CanModerate() {
		return role, nil
	}
	return f.Fallback.RoleOf(ctx, room, user)
}
