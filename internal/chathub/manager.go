package chathub

import (
	"context"
	"log"
	"time"

	"repairdesk/backend/internal/models"
	"repairdesk/backend/internal/storage"
)

// PresenceMirror publishes presence changes outside the process (e.g. Redis).
type PresenceMirror interface {
	MarkOnline(ctx context.Context, userID uint, entry storage.OnlineEntry) error
	MarkOffline(ctx context.Context, userID uint) error
}

// Limiter throttles sends per user.
type Limiter interface {
	Allow(ctx context.Context, subject uint) (bool, error)
}

// OfflineNotifier tells a user about a message they could not receive live.
type OfflineNotifier interface {
	NotifyOffline(receiver, sender *models.User, msg *models.ChatMessage) error
}

// ManagerService is the chat hub: it owns the presence registry, routes messages
// and read receipts, and keeps connected admins' rosters current.
type ManagerService struct {
	Presence *Presence

	RegisterCh   chan Client
	UnregisterCh chan Client

	Storage  storage.Storage
	Mirror   PresenceMirror
	Limiter  Limiter
	Notifier OfflineNotifier

	// Now stamps persisted messages. Defaults to time.Now.
	Now func() time.Time

	quit chan struct{}
}

func NewManagerService(s storage.Storage) *ManagerService {
	return &ManagerService{
		Presence:     NewPresence(),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Storage:      s,
		Now:          time.Now,
		quit:         make(chan struct{}),
	}
}

// Run serializes connects and disconnects until ctx is cancelled.
func (m *ManagerService) Run(ctx context.Context) {
	log.Println("Chat hub started.")
	defer close(m.quit)

	for {
		select {
		case <-ctx.Done():
			log.Println("Chat hub stopped.")
			return
		case client := <-m.RegisterCh:
			m.handleRegister(ctx, client)
		case client := <-m.UnregisterCh:
			m.handleUnregister(ctx, client)
		}
	}
}

// Register hands c to the Run loop. It returns false if the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.quit:
		return false
	}
}

// Unregister hands c to the Run loop for removal. After the hub has stopped
// it only closes the client.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.quit:
		c.Close()
	}
}

func (m *ManagerService) handleRegister(ctx context.Context, c Client) {
	userID := c.GetUserID()
	prev := m.Presence.Connect(userID, c)
	if prev != nil && prev != c {
		log.Printf("INFO: User %d reconnected, connection %s replaces %s", userID, c.GetConnID(), prev.GetConnID())
		// One session per user: the replaced connection stops reading commands.
		prev.Close()
	} else {
		log.Printf("INFO: User %d connected (%s)", userID, c.GetConnID())
	}

	if m.Mirror != nil {
		entry := storage.OnlineEntry{ConnID: c.GetConnID(), Role: c.GetRole(), Since: m.Now().UTC()}
		if err := m.Mirror.MarkOnline(ctx, userID, entry); err != nil {
			log.Printf("WARNING: Failed to mirror presence for user %d: %v", userID, err)
		}
	}

	if prev == nil && !c.GetRole().IsAdmin() {
		m.notifyStatus(userID, c.GetUserName(), true)
	}
}

func (m *ManagerService) handleUnregister(ctx context.Context, c Client) {
	userID := c.GetUserID()
	removed := m.Presence.DisconnectIf(userID, c)
	c.Close()
	if !removed {
		// A newer connection already took over.
		return
	}
	log.Printf("INFO: User %d disconnected (%s)", userID, c.GetConnID())

	if m.Mirror != nil {
		if err := m.Mirror.MarkOffline(ctx, userID); err != nil {
			log.Printf("WARNING: Failed to clear mirrored presence for user %d: %v", userID, err)
		}
	}

	if !c.GetRole().IsAdmin() {
		m.notifyStatus(userID, c.GetUserName(), false)
	}
}

// push delivers ev to c. Failures are logged and dropped.
func (m *ManagerService) push(c Client, ev models.Event) bool {
	if err := c.Send(ev); err != nil {
		log.Printf("WARNING: Dropped %s for user %d (%s): %v", ev.Type, c.GetUserID(), c.GetConnID(), err)
		return false
	}
	return true
}

// pushToUser delivers ev to userID's live connection, if there is one.
func (m *ManagerService) pushToUser(userID uint, ev models.Event) bool {
	c, ok := m.Presence.Lookup(userID)
	if !ok {
		return false
	}
	return m.push(c, ev)
}

func (m *ManagerService) connectedAdmins() []Client {
	var admins []Client
	for _, c := range m.Presence.Snapshot() {
		if c.GetRole().IsAdmin() {
			admins = append(admins, c)
		}
	}
	return admins
}

func (m *ManagerService) notifyStatus(userID uint, userName string, online bool) {
	ev := models.Event{
		Type:    models.EventUserStatusChanged,
		Payload: models.StatusChange{UserID: userID, UserName: userName, IsOnline: online},
	}
	for _, admin := range m.connectedAdmins() {
		m.push(admin, ev)
	}
}
