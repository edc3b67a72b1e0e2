package handler

import (
	"net/http"

	"repairdesk/backend/internal/auth"
	"repairdesk/backend/internal/chathub"
	"repairdesk/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler holds the chat hub and the stores the HTTP surface reads from.
type Handler struct {
	Hub      *chathub.ManagerService
	Storage  storage.Storage
	Verifier *auth.Verifier
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, v *auth.Verifier) *Handler {
	return &Handler{Hub: hub, Storage: s, Verifier: v}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := r.Group("/", auth.RequireUser(h.Verifier, h.Storage))
	authed.GET("/ws", h.ServeWebSocket)

	chat := authed.Group("/api/chat")
	chat.GET("/users", h.GetChatUsers)
	chat.GET("/conversations", h.GetConversations)
	chat.GET("/messages/:userId", h.GetMessagesWithUser)
	chat.POST("/send", h.SendMessage)
	chat.POST("/mark-read/:messageId", h.MarkAsRead)
	chat.GET("/unread-count", h.GetUnreadCount)
}

// NewRouter builds a gin engine with the default logger and recovery middleware.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()
	h.Register(r)
	return r
}
