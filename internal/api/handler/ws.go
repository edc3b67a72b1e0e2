package handler

import (
	"log"
	"net/http"

	"repairdesk/backend/internal/auth"
	"repairdesk/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The chat UI is served from other origins; tokens gate access instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades an authenticated request and registers the connection with the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Printf("WARNING: websocket upgrade for user %d failed: %v", user.ID, err)
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, user, conn)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
