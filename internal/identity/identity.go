// Package identity is the boundary to the authentication collaborator.
// The core never verifies credentials itself; it consumes a verified
// {userId, chatName, isAdmin} tuple produced here before a join is
// accepted.
package identity

import "context"

// Identity is the verified tuple attached to a connection at handshake.
type Identity struct {
	UserID   string
	ChatName string
	IsAdmin  bool
}

// Resolver turns opaque credentials into a verified identity.
type Resolver interface {
	Resolve(ctx context.Context, credentials string) (Identity, error)
}
