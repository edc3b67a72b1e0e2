package chathub

import "repairdesk/backend/internal/models"

// Client is one live connection of an authenticated user.
// It abstracts the transport so the hub can push events without knowing about websockets.
type Client interface {
	// GetUserID returns the identity-store id of the connected user.
	GetUserID() uint
	// GetUserName returns the display name used in status notifications.
	GetUserName() string
	// GetRole returns the user's role as resolved when the connection was accepted.
	GetRole() models.Role
	// GetConnID returns a unique id for this connection.
	GetConnID() string

	// Send queues ev for delivery without blocking. It returns ErrClientClosed or
	// ErrSendBufferFull when the event cannot be queued.
	Send(ev models.Event) error

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the client. It is safe to call more than once.
	Close()
}
