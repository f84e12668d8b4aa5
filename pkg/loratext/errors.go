package loratext

import (
	"errors"
)

var (
	// ErrMalformedFrame indicates a received frame with fewer than three separators.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrSeparatorInField is returned when an address or id contains the frame separator.
	ErrSeparatorInField = errors.New("field contains frame separator")
	// ErrControlCollision is returned when an application payload is byte-identical to a control payload.
	ErrControlCollision = errors.New("application payload collides with control byte")
	// ErrEmptyKey is returned by the cipher when the key is empty.
	ErrEmptyKey = errors.New("cipher key is empty")

	ErrInvalidName   = errors.New("invalid peer name")
	ErrDuplicatePeer = errors.New("duplicate peer name")
	ErrUnknownPeer   = errors.New("unknown peer")
	ErrEmptyText     = errors.New("message text is empty")
)
