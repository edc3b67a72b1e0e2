package chathub_test

import (
	"context"
	"fmt"
	"sync"

	"repairdesk/backend/internal/chathub"
	"repairdesk/backend/internal/models"
	"repairdesk/backend/internal/storage"
	"repairdesk/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock for the failure paths Memory cannot produce.
type MockStorage struct {
	storagetest.Memory
	mock.Mock
}

func (m *MockStorage) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) GetMessageByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

// MockClient records every event pushed to it.
type MockClient struct {
	userID uint
	name   string
	role   models.Role
	connID string

	mu     sync.Mutex
	events []models.Event
	closed bool
}

var connSeq struct {
	sync.Mutex
	n int
}

func newMockClient(userID uint, role models.Role) *MockClient {
	connSeq.Lock()
	connSeq.n++
	n := connSeq.n
	connSeq.Unlock()
	return &MockClient{
		userID: userID,
		name:   fmt.Sprintf("user-%d", userID),
		role:   role,
		connID: fmt.Sprintf("conn-%d", n),
	}
}

func (c *MockClient) GetUserID() uint      { return c.userID }
func (c *MockClient) GetUserName() string  { return c.name }
func (c *MockClient) GetRole() models.Role { return c.role }
func (c *MockClient) GetConnID() string    { return c.connID }

func (c *MockClient) Send(ev models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return chathub.ErrClientClosed
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *MockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// eventsOf returns the recorded events of type typ.
func (c *MockClient) eventsOf(typ string) []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Event
	for _, ev := range c.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *MockClient) lastOf(typ string) (models.Event, bool) {
	evs := c.eventsOf(typ)
	if len(evs) == 0 {
		return models.Event{}, false
	}
	return evs[len(evs)-1], true
}

// fakeLimiter allows the first n sends.
type fakeLimiter struct {
	mu    sync.Mutex
	n     int
	calls int
	err   error
}

func (l *fakeLimiter) Allow(_ context.Context, _ uint) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return false, l.err
	}
	return l.calls <= l.n, nil
}

type notification struct {
	receiverID uint
	senderID   uint
	body       string
}

// fakeNotifier records offline notifications on a channel.
type fakeNotifier struct {
	ch chan notification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan notification, 10)}
}

func (n *fakeNotifier) NotifyOffline(receiver, sender *models.User, msg *models.ChatMessage) error {
	n.ch <- notification{receiverID: receiver.ID, senderID: sender.ID, body: msg.Body}
	return nil
}

// fakeMirror records mirrored presence.
type fakeMirror struct {
	mu     sync.Mutex
	online map[uint]storage.OnlineEntry
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{online: make(map[uint]storage.OnlineEntry)}
}

func (f *fakeMirror) MarkOnline(_ context.Context, userID uint, entry storage.OnlineEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = entry
	return nil
}

func (f *fakeMirror) MarkOffline(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online, userID)
	return nil
}

func (f *fakeMirror) has(userID uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.online[userID]
	return ok
}

var (
	admin1  = models.User{ID: 1, UserName: "alice", FullName: "Alice Admin", Email: "alice@shop.test", Role: models.RoleAdmin}
	admin2  = models.User{ID: 2, UserName: "anton", Role: models.RoleAdmin}
	tech1   = models.User{ID: 3, UserName: "tom", Role: models.RoleTechnician}
	client1 = models.User{ID: 4, UserName: "carl", FullName: "Carl Client", Role: models.RoleClient}
	client2 = models.User{ID: 5, UserName: "cora", Role: models.RoleClient}
)

func newTestHub(users ...models.User) (*chathub.ManagerService, *storagetest.Memory) {
	if len(users) == 0 {
		users = []models.User{admin1, admin2, tech1, client1, client2}
	}
	store := storagetest.NewMemory(users...)
	return chathub.NewManagerService(store), store
}

// connect puts c into the hub's presence registry without running the loop.
func connect(hub *chathub.ManagerService, c *MockClient) {
	hub.Presence.Connect(c.GetUserID(), c)
}
