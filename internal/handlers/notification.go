package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/middleware"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/internal/notify"
)

type NotificationHandler struct {
	db         *database.Database
	dispatcher *notify.Dispatcher
}

func NewNotificationHandler(db *database.Database, dispatcher *notify.Dispatcher) *NotificationHandler {
	return &NotificationHandler{db: db, dispatcher: dispatcher}
}

// GetMyNotifications возвращает уведомления пользователя, новые первыми
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var list []models.Notification
	var err error
	if c.Query("unread") == "true" {
		list, err = h.db.ListUnreadNotifications(userID)
	} else {
		list, err = h.db.ListNotifications(userID, limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	response := make([]gin.H, len(list))
	for i, n := range list {
		response[i] = formatNotificationResponse(&n)
	}

	c.JSON(http.StatusOK, gin.H{"notifications": response})
}

// GetUnreadCount возвращает число непрочитанных уведомлений
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	count, err := h.db.CountUnreadNotifications(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead отмечает уведомление прочитанным; повторный вызов ничего не меняет
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.dispatcher.MarkRead(userID, notificationID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllRead отмечает всё прочитанным
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	if err := h.dispatcher.MarkAllRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

// DeleteNotification удаляет уведомление; разрешено только владельцу
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.dispatcher.Delete(userID, notificationID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}

func formatNotificationResponse(n *models.Notification) gin.H {
	response := gin.H{
		"id":         n.ID,
		"kind":       n.Kind,
		"title":      n.Title,
		"body":       n.Body,
		"read":       n.Read,
		"created_at": n.CreatedAt,
	}
	if len(n.Payload) > 0 {
		response["data"] = n.Payload
	}
	if n.ReadAt != nil {
		response["read_at"] = n.ReadAt
	}
	return response
}
