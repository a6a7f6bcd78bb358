// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// service package to distinguish between different failure scenarios
// without inspecting driver-specific errors. For example, ErrNotFound
// indicates that a lookup matched no row, while ErrDuplicate signals
// that an insert collided with a unique index (email or phone).
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. The service layer
// translates this into the flow-appropriate failure (invalid credentials,
// unknown token, missing admin target, ...).
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates the unique email or
// phone index. The service layer translates this into a duplicate
// identity failure.
var ErrDuplicate = errors.New("duplicate identity")
