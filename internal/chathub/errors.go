package chathub

import (
	"errors"
	"fmt"

	"repairdesk/backend/internal/config"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("you can only send messages to administrators")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrInvalidMessage   = fmt.Errorf("message must be non-empty and at most %d characters", config.MaxMessageLength)
	ErrRateLimited      = errors.New("too many messages, slow down")

	ErrClientClosed   = errors.New("client connection closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

// isClientError reports whether err is a rejection the caller caused.
func isClientError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrReceiverNotFound) ||
		errors.Is(err, ErrInvalidMessage) ||
		errors.Is(err, ErrRateLimited)
}

// publicError returns the text safe to show a caller for err.
func publicError(err error) string {
	if isClientError(err) {
		return err.Error()
	}
	return "internal error"
}
