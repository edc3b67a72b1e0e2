package models

import "time"

// Event types pushed from the server to connected clients.
const (
	EventReceiveMessage    = "ReceiveMessage"
	EventMessageSent       = "MessageSent"
	EventMessageRead       = "MessageRead"
	EventUserStatusChanged = "UserStatusChanged"
	EventUpdateUserList    = "UpdateUserList"
	EventError             = "Error"
)

// Command types emitted by clients over the websocket.
const (
	CommandSendMessage = "SendMessage"
	CommandMarkAsRead  = "MarkAsRead"
)

// Event is the envelope for every server-to-client push.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Command is a decoded client-to-server websocket frame. Which fields are used
// depends on Type.
type Command struct {
	Type       string `json:"type" validate:"required,oneof=SendMessage MarkAsRead"`
	ReceiverID uint   `json:"receiverId" validate:"required_if=Type SendMessage"`
	Message    string `json:"message" validate:"required_if=Type SendMessage"`
	MessageID  uint   `json:"messageId" validate:"required_if=Type MarkAsRead"`
}

// MessageView is the wire form of a ChatMessage, annotated with participant names.
type MessageView struct {
	ID           uint      `json:"id"`
	SenderID     uint      `json:"senderId"`
	SenderName   string    `json:"senderName"`
	ReceiverID   uint      `json:"receiverId"`
	ReceiverName string    `json:"receiverName"`
	Message      string    `json:"message"`
	SentAt       time.Time `json:"sentAt"`
	IsRead       bool      `json:"isRead"`
}

// NewMessageView builds the wire form of msg. Nil users render as "Unknown".
func NewMessageView(msg *ChatMessage, sender, receiver *User) MessageView {
	return MessageView{
		ID:           msg.ID,
		SenderID:     msg.SenderID,
		SenderName:   sender.DisplayName(),
		ReceiverID:   msg.ReceiverID,
		ReceiverName: receiver.DisplayName(),
		Message:      msg.Body,
		SentAt:       msg.SentAt,
		IsRead:       msg.IsRead,
	}
}

// RosterEntry describes one chat counterpart: the admin roster and the
// non-admin "available admins" list share this shape.
type RosterEntry struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	UnreadCount int          `json:"unreadCount"`
	LastMessage *MessageView `json:"lastMessage"`
	IsOnline    bool         `json:"isOnline"`
}

type ReadReceipt struct {
	MessageID uint `json:"messageId"`
}

type StatusChange struct {
	UserID   uint   `json:"userId"`
	UserName string `json:"userName"`
	IsOnline bool   `json:"isOnline"`
}

type CommandError struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}
