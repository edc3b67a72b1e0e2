// Package storagetest provides an in-memory Storage for tests of packages that
// sit on top of the store.
package storagetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"repairdesk/backend/internal/models"
	"repairdesk/backend/internal/storage"
)

// Memory is an in-memory storage.Storage for tests. It is safe for concurrent use.
// Conversations page the same way as the SQL store: newest page, oldest first.
type Memory struct {
	mu       sync.Mutex
	users    map[uint]models.User
	messages []models.ChatMessage
	nextID   uint
}

var _ storage.Storage = (*Memory)(nil)

// NewMemory returns a store seeded with users.
func NewMemory(users ...models.User) *Memory {
	s := &Memory{users: make(map[uint]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *Memory) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Memory) GetUsersByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Memory) ListUsersByRole(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[uint]models.User)
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Memory) SaveMessage(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	msg.ID = s.nextID
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *Memory) GetMessageByID(_ context.Context, id uint) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *Memory) MarkMessageRead(_ context.Context, id, readerID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		m := &s.messages[i]
		if m.ID == id && m.ReceiverID == readerID && !m.IsRead {
			m.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (s *Memory) MarkConversationRead(_ context.Context, readerID, counterpartID uint) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped []models.ChatMessage
	for i := range s.messages {
		m := &s.messages[i]
		if m.ReceiverID == readerID && m.SenderID == counterpartID && !m.IsRead {
			m.IsRead = true
			flipped = append(flipped, *m)
		}
	}
	return flipped, nil
}

func (s *Memory) GetConversation(_ context.Context, userID, counterpartID uint, page models.Page) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// messages are kept in id order.
	var out []models.ChatMessage
	for _, m := range s.messages {
		if !m.Involves(userID) || m.Counterpart(userID) != counterpartID {
			continue
		}
		if page.BeforeID > 0 && m.ID >= page.BeforeID {
			continue
		}
		out = append(out, m)
	}
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[len(out)-page.Limit:]
	}
	return out, nil
}

func (s *Memory) GetMessagesInvolving(_ context.Context, userID uint) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatMessage
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Involves(userID) {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}

func (s *Memory) CountUnread(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// CountUnreadFrom matches Service.CountUnreadFrom.
func (s *Memory) CountUnreadFrom(_ context.Context, receiverID, senderID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored messages.
func (s *Memory) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
