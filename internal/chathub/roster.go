package chathub

import (
	"context"
	"log"
	"sort"

	"repairdesk/backend/internal/models"

	"github.com/samber/lo"
)

// BuildRoster folds msgs into one entry per counterpart of ownerID, ordered by the
// most recent message (newest first). Messages that do not involve ownerID, and
// messages ownerID sent to themselves, are ignored. users supplies names and roles.
func BuildRoster(ownerID uint, msgs []models.ChatMessage, users map[uint]models.User, online func(uint) bool) []models.RosterEntry {
	type acc struct {
		last   *models.ChatMessage
		unread int
	}
	byCounterpart := make(map[uint]*acc)

	for i := range msgs {
		msg := &msgs[i]
		if !msg.Involves(ownerID) || msg.SenderID == msg.ReceiverID {
			continue
		}
		cp := msg.Counterpart(ownerID)
		a, ok := byCounterpart[cp]
		if !ok {
			a = &acc{}
			byCounterpart[cp] = a
		}
		if a.last == nil || newer(msg, a.last) {
			a.last = msg
		}
		if msg.SenderID == cp && !msg.IsRead {
			a.unread++
		}
	}

	lookup := func(id uint) *models.User {
		if u, ok := users[id]; ok {
			return &u
		}
		return nil
	}
	owner := lookup(ownerID)

	entries := make([]models.RosterEntry, 0, len(byCounterpart))
	for cp, a := range byCounterpart {
		user := lookup(cp)
		entry := newRosterEntry(cp, user, online)
		entry.UnreadCount = a.unread

		sender, receiver := owner, user
		if a.last.SenderID == cp {
			sender, receiver = user, owner
		}
		view := models.NewMessageView(a.last, sender, receiver)
		entry.LastMessage = &view
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		li, lj := entries[i].LastMessage, entries[j].LastMessage
		if !li.SentAt.Equal(lj.SentAt) {
			return li.SentAt.After(lj.SentAt)
		}
		if li.ID != lj.ID {
			return li.ID > lj.ID
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func newer(a, b *models.ChatMessage) bool {
	if !a.SentAt.Equal(b.SentAt) {
		return a.SentAt.After(b.SentAt)
	}
	return a.ID > b.ID
}

func newRosterEntry(id uint, user *models.User, online func(uint) bool) models.RosterEntry {
	entry := models.RosterEntry{
		ID:       id,
		Name:     user.DisplayName(),
		Role:     models.RoleClient,
		IsOnline: online != nil && online(id),
	}
	if user != nil {
		entry.Email = user.Email
		entry.Role = user.Role
	}
	return entry
}

// Roster computes userID's counterpart list from the store.
func (m *ManagerService) Roster(ctx context.Context, userID uint) ([]models.RosterEntry, error) {
	msgs, err := m.Storage.GetMessagesInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := lo.Uniq(append(lo.Map(msgs, func(msg models.ChatMessage, _ int) uint {
		return msg.Counterpart(userID)
	}), userID))

	users, err := m.Storage.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(users, func(u models.User) uint { return u.ID })
	return BuildRoster(userID, msgs, byID, m.Presence.Online), nil
}

// Contacts lists who user may talk to. Admins get their roster; everyone else gets
// every admin, those with history first.
func (m *ManagerService) Contacts(ctx context.Context, user *models.User) ([]models.RosterEntry, error) {
	if user.IsAdmin() {
		return m.Roster(ctx, user.ID)
	}

	admins, err := m.Storage.ListUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	msgs, err := m.Storage.GetMessagesInvolving(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	byID := lo.KeyBy(admins, func(u models.User) uint { return u.ID })
	byID[user.ID] = *user
	withAdmins := lo.Filter(msgs, func(msg models.ChatMessage, _ int) bool {
		_, ok := byID[msg.Counterpart(user.ID)]
		return ok
	})
	entries := BuildRoster(user.ID, withAdmins, byID, m.Presence.Online)

	seen := lo.SliceToMap(entries, func(e models.RosterEntry) (uint, struct{}) { return e.ID, struct{}{} })
	for i := range admins {
		if _, ok := seen[admins[i].ID]; ok || admins[i].ID == user.ID {
			continue
		}
		entries = append(entries, newRosterEntry(admins[i].ID, &admins[i], m.Presence.Online))
	}
	return entries, nil
}

// RefreshRosters recomputes and pushes the roster of every connected admin.
func (m *ManagerService) RefreshRosters(ctx context.Context) {
	for _, admin := range m.connectedAdmins() {
		roster, err := m.Roster(ctx, admin.GetUserID())
		if err != nil {
			log.Printf("ERROR: Failed to build roster for admin %d: %v", admin.GetUserID(), err)
			continue
		}
		m.push(admin, models.Event{Type: models.EventUpdateUserList, Payload: roster})
	}
}
