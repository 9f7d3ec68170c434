package domain

import "errors"

var (
	ErrInvalidHandshake = errors.New("invalid handshake")
	ErrEmptyContent     = errors.New("empty content")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrTargetOffline    = errors.New("target offline")
)
