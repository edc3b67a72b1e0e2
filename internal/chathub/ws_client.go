package chathub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"repairdesk/backend/internal/config"
	"repairdesk/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	ID   string
	User *models.User
	Conn *websocket.Conn
	Hub  *ManagerService

	send      chan models.Event
	done      chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

func NewWebSocketClient(hub *ManagerService, user *models.User, conn *websocket.Conn) *WebSocketClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketClient{
		ID:     uuid.New().String(),
		User:   user,
		Conn:   conn,
		Hub:    hub,
		send:   make(chan models.Event, config.SendBufferSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *WebSocketClient) GetUserID() uint      { return c.User.ID }
func (c *WebSocketClient) GetUserName() string  { return c.User.DisplayName() }
func (c *WebSocketClient) GetRole() models.Role { return c.User.Role }
func (c *WebSocketClient) GetConnID() string    { return c.ID }

func (c *WebSocketClient) Send(ev models.Event) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- ev:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSendBufferFull
	}
}

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump and cancels in-flight commands. The read pump
// exits when the write pump closes the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message from user %d: %v", c.User.ID, err)
			}
			return
		}

		var cmd models.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("Error decoding JSON from user %d: %v", c.User.ID, err)
			continue
		}

		// Commands from one connection run in order, one at a time.
		c.Hub.HandleCommand(c.ctx, c, cmd)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteJSON(ev); err != nil {
				log.Printf("Error writing %s to user %d: %v", ev.Type, c.User.ID, err)
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
