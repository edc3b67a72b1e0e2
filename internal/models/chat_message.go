package models

import "time"

// ChatMessage is a persisted support-chat message between two users.
// Rows are append-only; IsRead is the only field that changes after creation,
// and only from false to true.
type ChatMessage struct {
	// ID is assigned by the database on insert.
	ID uint `gorm:"primaryKey" json:"id"`
	// SenderID is the user who wrote the message.
	SenderID uint `gorm:"not null;index:idx_chat_pair,priority:1" json:"senderId"`
	// ReceiverID is the addressed user.
	ReceiverID uint `gorm:"not null;index:idx_chat_pair,priority:2;index:idx_chat_unread,priority:1" json:"receiverId"`
	// Body is the message text.
	Body string `gorm:"type:text;not null" json:"message"`
	// SentAt is assigned by the server when the message is persisted (UTC).
	SentAt time.Time `gorm:"not null;index:idx_chat_pair,priority:3" json:"sentAt"`
	// IsRead flips to true once the receiver acknowledges the message.
	IsRead bool `gorm:"not null;default:false;index:idx_chat_unread,priority:2" json:"isRead"`
}

// Counterpart returns the other participant of the message from userID's point of view.
func (m *ChatMessage) Counterpart(userID uint) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Involves reports whether userID is the sender or the receiver of the message.
func (m *ChatMessage) Involves(userID uint) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Page bounds a conversation query. BeforeID of zero means "latest".
type Page struct {
	Limit    int
	BeforeID uint
}
