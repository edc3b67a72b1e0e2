package config

import "time"

const (
	// Messages
	MaxMessageLength    = 2000
	NotificationPreview = 200

	// Conversation paging
	DefaultPageSize = 50
	MaxPageSize     = 200

	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	// MaxFrameSize fits a SendMessage command of MaxMessageLength runes even when
	// every rune is escaped as a \uXXXX\uXXXX surrogate pair.
	MaxFrameSize   = 12*MaxMessageLength + 1024
	SendBufferSize = 256
)
