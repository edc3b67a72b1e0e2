package chathub

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"repairdesk/backend/internal/config"
	"repairdesk/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SendMessage validates, persists and fans out a new message from senderID to receiverID.
// The MessageSent echo goes to the sender's current connection, if any.
func (m *ManagerService) SendMessage(ctx context.Context, senderID, receiverID uint, body string) (*models.MessageView, error) {
	return m.sendMessage(ctx, nil, senderID, receiverID, body)
}

// sendMessage echoes MessageSent to caller when it is set, so the connection that
// issued the command gets its own ack.
func (m *ManagerService) sendMessage(ctx context.Context, caller Client, senderID, receiverID uint, body string) (*models.MessageView, error) {
	// 1. Sender must still exist
	sender, err := m.Storage.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("load sender %d: %w", senderID, err)
	}
	if sender == nil {
		return nil, ErrUnauthorized
	}

	// 2. Body
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > config.MaxMessageLength {
		return nil, ErrInvalidMessage
	}

	// 3. Receiver and the admin-on-one-side policy
	receiver, err := m.Storage.GetUserByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("load receiver %d: %w", receiverID, err)
	}
	if receiver == nil {
		return nil, ErrReceiverNotFound
	}

	if !models.CanMessage(sender.Role, receiver.Role) {
		return nil, ErrForbidden
	}

	// 4. Throttle. Limiter errors let the message through.
	if m.Limiter != nil {
		allowed, err := m.Limiter.Allow(ctx, senderID)
		if err != nil {
			log.Printf("WARNING: Rate limiter unavailable, allowing send from %d: %v", senderID, err)
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	// 5. Persist
	msg := &models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		SentAt:     m.Now().UTC(),
		IsRead:     false,
	}
	if err := m.Storage.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	// 6. Fan out: receiver, sender echo, then Telegram if the receiver was offline
	view := models.NewMessageView(msg, sender, receiver)

	delivered := m.pushToUser(receiverID, models.Event{Type: models.EventReceiveMessage, Payload: view})
	sent := models.Event{Type: models.EventMessageSent, Payload: view}
	if caller != nil {
		m.push(caller, sent)
	} else {
		m.pushToUser(senderID, sent)
	}

	if !delivered && receiver.TelegramChatID != nil && m.Notifier != nil {
		go func() {
			if err := m.Notifier.NotifyOffline(receiver, sender, msg); err != nil {
				log.Printf("WARNING: Offline notification for user %d failed: %v", receiver.ID, err)
			}
		}()
	}

	// 7. Admin rosters
	m.RefreshRosters(ctx)
	return &view, nil
}

// MarkRead marks messageID as read on behalf of readerID. Missing messages, readers
// that are not the receiver, and already-read messages are ignored without error.
func (m *ManagerService) MarkRead(ctx context.Context, messageID, readerID uint) error {
	msg, err := m.Storage.GetMessageByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("load message %d: %w", messageID, err)
	}
	if msg == nil || msg.ReceiverID != readerID || msg.IsRead {
		return nil
	}

	changed, err := m.Storage.MarkMessageRead(ctx, messageID, readerID)
	if err != nil {
		return fmt.Errorf("mark message %d read: %w", messageID, err)
	}
	if !changed {
		return nil
	}

	m.pushToUser(msg.SenderID, models.Event{
		Type:    models.EventMessageRead,
		Payload: models.ReadReceipt{MessageID: messageID},
	})
	m.RefreshRosters(ctx)
	return nil
}

// MarkConversationRead marks everything counterpartID sent to readerID as read and
// returns how many messages changed.
func (m *ManagerService) MarkConversationRead(ctx context.Context, readerID, counterpartID uint) (int, error) {
	flipped, err := m.Storage.MarkConversationRead(ctx, readerID, counterpartID)
	if err != nil {
		return 0, err
	}
	if len(flipped) == 0 {
		return 0, nil
	}
	for _, msg := range flipped {
		m.pushToUser(msg.SenderID, models.Event{
			Type:    models.EventMessageRead,
			Payload: models.ReadReceipt{MessageID: msg.ID},
		})
	}
	m.RefreshRosters(ctx)
	return len(flipped), nil
}

// HandleCommand executes one websocket command for c. Rejections are reported
// back to c as Error events.
func (m *ManagerService) HandleCommand(ctx context.Context, c Client, cmd models.Command) {
	if err := validate.Struct(cmd); err != nil {
		m.push(c, models.Event{
			Type:    models.EventError,
			Payload: models.CommandError{Action: cmd.Type, Error: "invalid command"},
		})
		return
	}

	switch cmd.Type {
	case models.CommandSendMessage:
		if _, err := m.sendMessage(ctx, c, c.GetUserID(), cmd.ReceiverID, cmd.Message); err != nil {
			if !isClientError(err) {
				log.Printf("ERROR: SendMessage from %d failed: %v", c.GetUserID(), err)
			}
			m.push(c, models.Event{
				Type:    models.EventError,
				Payload: models.CommandError{Action: cmd.Type, Error: publicError(err)},
			})
		}
	case models.CommandMarkAsRead:
		if err := m.MarkRead(ctx, cmd.MessageID, c.GetUserID()); err != nil {
			log.Printf("ERROR: MarkAsRead %d by %d failed: %v", cmd.MessageID, c.GetUserID(), err)
		}
	}
}
