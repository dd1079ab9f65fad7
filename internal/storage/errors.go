package storage

import "errors"

// Sentinel errors shared by every Storage implementation. Implementations wrap
// them with context; callers match with errors.Is.
var (
	// ErrNotFound means no complaint carries the requested protocol.
	ErrNotFound = errors.New("complaint not found")
	// ErrDuplicateProtocol means a complaint with the same protocol already exists.
	ErrDuplicateProtocol = errors.New("duplicate protocol")
	// ErrUnreadable means the backing medium could not be read or decoded.
	ErrUnreadable = errors.New("complaint store unreadable")
)
