// Package domain contains entities without logic, just meta-data
package domain

import (
	"fmt"
	"strings"
)

const (
	MaxUserIDLen      = 128
	MaxDisplayNameLen = 64
)

type UserID string

// Identity is supplied by the identity provider at handshake time and never
// changes for the lifetime of a connection.
type Identity struct {
	UserID      UserID `json:"userId"`
	DisplayName string `json:"username"`
}

// NewIdentity validates the handshake fields.
func NewIdentity(userID, displayName string) (Identity, error) {
	userID = strings.TrimSpace(userID)
	displayName = strings.TrimSpace(displayName)
	if userID == "" {
		return Identity{}, fmt.Errorf("%w: userId missing", ErrInvalidHandshake)
	}
	if displayName == "" {
		return Identity{}, fmt.Errorf("%w: displayName missing", ErrInvalidHandshake)
	}
	if len(userID) > MaxUserIDLen {
		return Identity{}, fmt.Errorf("%w: userId too long", ErrInvalidHandshake)
	}
	if len(displayName) > MaxDisplayNameLen {
		return Identity{}, fmt.Errorf("%w: displayName too long", ErrInvalidHandshake)
	}
	return Identity{UserID: UserID(userID), DisplayName: displayName}, nil
}
