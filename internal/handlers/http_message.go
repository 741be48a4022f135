package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/lazycord/internal/access"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/middleware"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

type HTTPMessageHandler struct {
	db       *database.Database
	checker  *access.Checker
	messages *MessageHandler
}

func NewHTTPMessageHandler(db *database.Database, checker *access.Checker, messages *MessageHandler) *HTTPMessageHandler {
	return &HTTPMessageHandler{db: db, checker: checker, messages: messages}
}

// GetChannelMessages получает историю сообщений канала
func (h *HTTPMessageHandler) GetChannelMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.checker.CanRead(userID, channel); err != nil {
		respondError(c, err)
		return
	}

	// Параметры пагинации
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		if id, err := uuid.Parse(before); err == nil {
			beforeID = &id
		}
	}

	messages, err := h.db.RecentMessages(channel.ID, limit, beforeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	result := make([]gin.H, len(messages))
	for i, msg := range messages {
		result[i] = formatMessageResponse(&msg)
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result,
		"has_more": len(messages) == limit,
	})
}

// SendMessage отправляет сообщение через HTTP (альтернатива WebSocket).
// Контроль доступа идёт до записи: при отказе в лог ничего не попадает.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Content       string `json:"content" binding:"required"`
		Kind          string `json:"kind"`
		AttachmentURL string `json:"attachment_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messages.AppendMessage(userID, channel, req.Content, req.Kind, req.AttachmentURL)
	if err != nil {
		respondError(c, err)
		return
	}

	full, _ := h.db.GetMessage(message.ID.String())

	c.JSON(http.StatusCreated, formatMessageResponse(full))
}

// UpdateMessage редактирует сообщение; разрешено только автору.
// Повторная проверка бана/мута не выполняется: правка уже принятого
// сообщения всегда доступна автору.
func (h *HTTPMessageHandler) UpdateMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	message, err := h.db.GetMessage(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if message.SenderID != userID {
		respondError(c, apperrors.ErrNotAuthor)
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateContent(req.Content); err != nil {
		respondError(c, err)
		return
	}

	message.Content = req.Content
	message.Edited = true

	if err := h.db.UpdateMessage(message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update message"})
		return
	}

	h.messages.broadcastMessageEdit(message)

	c.JSON(http.StatusOK, formatMessageResponse(message))
}

// DeleteMessage удаляет сообщение; разрешено только автору
func (h *HTTPMessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	message, err := h.db.GetMessage(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if message.SenderID != userID {
		respondError(c, apperrors.ErrNotAuthor)
		return
	}

	if err := h.db.DeleteMessage(message.ID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	h.messages.broadcastMessageDelete(message)

	c.JSON(http.StatusOK, gin.H{"message": "message deleted successfully"})
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.ErrEmptyContent
	}
	if len(content) > models.MaxMessageLength {
		return apperrors.ErrContentTooLong
	}
	return nil
}

// formatMessageResponse форматирует ответ для сообщения
func formatMessageResponse(msg *models.Message) gin.H {
	response := gin.H{
		"id":         msg.ID,
		"channel_id": msg.ChannelID,
		"sender_id":  msg.SenderID,
		"content":    msg.Content,
		"kind":       msg.Kind,
		"edited":     msg.Edited,
		"created_at": msg.CreatedAt,
	}

	if msg.AttachmentURL != "" {
		response["attachment_url"] = msg.AttachmentURL
	}
	if msg.Edited {
		response["updated_at"] = msg.UpdatedAt
	}

	if msg.Sender.ID != uuid.Nil {
		response["sender"] = gin.H{
			"id":         msg.Sender.ID,
			"username":   msg.Sender.Username,
			"avatar_url": msg.Sender.AvatarURL,
		}
	}

	return response
}
