package domain

import "errors"

// Error taxonomy for the realtime core. Every failure is scoped to the
// triggering request; none of these are fatal to the process.
var (
	// ErrInvalidIdentity rejects a registration with an empty or
	// malformed chat name before any state is created.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrNotRegistered means an operation referenced a connection that
	// was never registered (or already unregistered).
	ErrNotRegistered = errors.New("connection not registered")

	// ErrNotFound means a lookup referenced an unknown connection.
	ErrNotFound = errors.New("connection not found")

	// ErrNotInRoom means the connection attempted a room-scoped
	// operation without being a member of any room.
	ErrNotInRoom = errors.New("not in a room")

	// ErrNotInSameRoom rejects a signaling relay between connections
	// that do not currently share a room.
	ErrNotInSameRoom = errors.New("peers not in the same room")

	// ErrPermissionDenied rejects an admin-only action from a
	// non-admin connection. No state is mutated.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPersistenceFailure means the message store was unavailable.
	// The publish is aborted and nothing is broadcast.
	ErrPersistenceFailure = errors.New("message store unavailable")

	// ErrRecipientUnavailable means a signaling target disconnected
	// between lookup and delivery. Dropped silently by callers.
	ErrRecipientUnavailable = errors.New("recipient unavailable")

	// ErrEmptyMessage rejects a blank message body.
	ErrEmptyMessage = errors.New("empty message body")

	// ErrMessageTooLong rejects a body over the configured limit.
	ErrMessageTooLong = errors.New("message body too long")

	// ErrMalformedEvent rejects an inbound frame whose payload is
	// missing required fields or fails to decode.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrUnknownEventType rejects an inbound frame whose type is not
	// part of the protocol.
	ErrUnknownEventType = errors.New("unknown event type")
)
