package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"repairdesk/backend/internal/auth"
	"repairdesk/backend/internal/chathub"
	"repairdesk/backend/internal/config"
	"repairdesk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type sendMessageRequest struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Message    string `json:"message" binding:"required"`
}

// GetChatUsers lists the caller's contacts: every admin for non-admins, the roster for admins.
func (h *Handler) GetChatUsers(c *gin.Context) {
	user := auth.CurrentUser(c)
	contacts, err := h.Hub.Contacts(c.Request.Context(), user)
	if err != nil {
		log.Printf("ERROR: Failed to list contacts for %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// GetConversations returns the admin roster.
func (h *Handler) GetConversations(c *gin.Context) {
	user := auth.CurrentUser(c)
	if !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admins only"})
		return
	}
	roster, err := h.Hub.Roster(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("ERROR: Failed to build roster for %d: %v", user.ID, err)
		// An empty list keeps the admin UI usable.
		c.JSON(http.StatusOK, []models.RosterEntry{})
		return
	}
	c.JSON(http.StatusOK, roster)
}

// GetMessagesWithUser returns one page of the conversation with :userId and marks
// the caller's incoming messages in it as read.
func (h *Handler) GetMessagesWithUser(c *gin.Context) {
	user := auth.CurrentUser(c)
	ctx := c.Request.Context()

	otherID, ok := parseID(c.Param("userId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	page, ok := parsePage(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid paging parameters"})
		return
	}

	other, err := h.Storage.GetUserByID(ctx, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if other == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if !models.CanMessage(user.Role, other.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": chathub.ErrForbidden.Error()})
		return
	}

	msgs, err := h.Storage.GetConversation(ctx, user.ID, otherID, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	if _, err := h.Hub.MarkConversationRead(ctx, user.ID, otherID); err != nil {
		log.Printf("WARNING: Failed to mark conversation %d<-%d read: %v", user.ID, otherID, err)
	}

	views := lo.Map(msgs, func(msg models.ChatMessage, _ int) models.MessageView {
		if msg.SenderID == user.ID {
			return models.NewMessageView(&msg, user, other)
		}
		return models.NewMessageView(&msg, other, user)
	})
	c.JSON(http.StatusOK, views)
}

// SendMessage sends through the hub, so live recipients and admin rosters update too.
func (h *Handler) SendMessage(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	view, err := h.Hub.SendMessage(c.Request.Context(), user.ID, req.ReceiverID, req.Message)
	if err != nil {
		status := sendErrorStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("ERROR: REST send from %d failed: %v", user.ID, err)
			c.JSON(status, gin.H{"error": "Failed to send message"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully", "messageId": view.ID})
}

// MarkAsRead is permissive: unknown messages and foreign messages are ignored.
func (h *Handler) MarkAsRead(c *gin.Context) {
	user := auth.CurrentUser(c)
	messageID, ok := parseID(c.Param("messageId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
		return
	}
	if err := h.Hub.MarkRead(c.Request.Context(), messageID, user.ID); err != nil {
		log.Printf("ERROR: Failed to mark message %d read for %d: %v", messageID, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark message read"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetUnreadCount(c *gin.Context) {
	user := auth.CurrentUser(c)
	n, err := h.Storage.CountUnread(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count unread messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func sendErrorStatus(err error) int {
	switch {
	case errors.Is(err, chathub.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, chathub.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, chathub.ErrReceiverNotFound):
		return http.StatusNotFound
	case errors.Is(err, chathub.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, chathub.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parsePage(c *gin.Context) (models.Page, bool) {
	page := models.Page{Limit: config.DefaultPageSize}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return page, false
		}
		page.Limit = min(n, config.MaxPageSize)
	}
	if s := c.Query("beforeId"); s != "" {
		id, ok := parseID(s)
		if !ok {
			return page, false
		}
		page.BeforeID = id
	}
	return page, true
}
