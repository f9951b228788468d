package object

import "errors"

// Error taxonomy for store operations. Handlers map these to HTTP status
// codes with [errors.Is]; everything else is treated as an I/O failure.
var (
	// ErrInvalidInput reports a malformed bucket, key, mode, policy,
	// postfix, or user metadata value. Rejected before any filesystem
	// access.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict reports that an existing object blocks the requested
	// write under the active conflict policy. Nothing was mutated.
	ErrConflict = errors.New("object already exists")

	// ErrNotFound reports that no stored candidate exists for a logical
	// key, or that a bucket directory does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrAmbiguousState reports that the authoritative version of a
	// logical key cannot be determined: tied created_at timestamps, or a
	// candidate with a missing or corrupt sidecar. Never resolved by an
	// arbitrary pick.
	ErrAmbiguousState = errors.New("unable to resolve stored key")

	// ErrPostfixExhausted reports that postfix regeneration hit its retry
	// ceiling without finding an unoccupied path.
	ErrPostfixExhausted = errors.New("failed to generate unique postfix")
)
