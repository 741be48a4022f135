package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/lazycord/internal/access"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/middleware"
	"github.com/thereayou/lazycord/internal/models"
	ws "github.com/thereayou/lazycord/internal/websocket"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

type ChannelHandler struct {
	db      *database.Database
	hub     *ws.Hub
	checker *access.Checker
}

func NewChannelHandler(db *database.Database, hub *ws.Hub, checker *access.Checker) *ChannelHandler {
	return &ChannelHandler{db: db, hub: hub, checker: checker}
}

// CreateChannel создает канал; создатель сразу становится OWNER
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name        string `json:"name" binding:"required,max=100"`
		Description string `json:"description"`
		Kind        string `json:"kind" binding:"required,oneof=PUBLIC PRIVATE"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.db.CreateChannel(req.Name, req.Description, models.ChannelKind(req.Kind), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create channel"})
		return
	}

	full, _ := h.db.GetChannel(channel.ID.String())

	c.JSON(http.StatusCreated, formatChannelResponse(full))
}

// CreateDirectChannel создает или возвращает диалог между двумя пользователями
func (h *ChannelHandler) CreateDirectChannel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if userID == targetUserID {
		respondError(c, apperrors.ErrDirectWithSelf)
		return
	}

	if _, err := h.db.GetUser(targetUserID.String()); err != nil {
		respondError(c, err)
		return
	}

	channel, err := h.db.GetOrCreateDirectChannel(userID, targetUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create direct channel"})
		return
	}

	full, _ := h.db.GetChannel(channel.ID.String())

	c.JSON(http.StatusOK, formatChannelResponse(full))
}

// GetMyChannels получает список каналов пользователя
func (h *ChannelHandler) GetMyChannels(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channels, err := h.db.GetUserChannels(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get channels"})
		return
	}

	response := make([]gin.H, len(channels))
	for i, channel := range channels {
		item := formatChannelResponse(&channel)

		// Последнее сообщение для превью
		messages, _ := h.db.RecentMessages(channel.ID, 1, nil)
		if len(messages) > 0 {
			item["last_message"] = gin.H{
				"id":         messages[0].ID,
				"content":    messages[0].Content,
				"sender_id":  messages[0].SenderID,
				"created_at": messages[0].CreatedAt,
			}
		}

		item["online_count"] = len(h.hub.GetChannelUsers(channel.ID))

		response[i] = item
	}

	c.JSON(http.StatusOK, gin.H{"channels": response})
}

// GetPublicChannels получает все публичные каналы
func (h *ChannelHandler) GetPublicChannels(c *gin.Context) {
	channels, err := h.db.GetPublicChannels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get channels"})
		return
	}

	response := make([]gin.H, len(channels))
	for i, channel := range channels {
		response[i] = gin.H{
			"id":          channel.ID,
			"name":        channel.Name,
			"description": channel.Description,
			"kind":        channel.Kind,
			"created_at":  channel.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"channels": response})
}

// GetChannel получает информацию о канале
func (h *ChannelHandler) GetChannel(c *gin.Context) {
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

	response := formatChannelResponse(channel)
	response["online_users"] = h.hub.GetChannelUsers(channel.ID)

	c.JSON(http.StatusOK, response)
}

// UpdateChannel обновляет канал; доступно только владельцу
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel, userID); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		channel.Name = req.Name
	}
	if req.Description != "" {
		channel.Description = req.Description
	}

	if err := h.db.UpdateChannel(channel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update channel"})
		return
	}

	c.JSON(http.StatusOK, formatChannelResponse(channel))
}

// DeleteChannel удаляет канал вместе с сообщениями и членствами
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel, userID); err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.DeleteChannel(channel.ID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete channel"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "channel deleted successfully"})
}

// JoinChannel добавляет пользователя в канал. Бан вход не блокирует:
// забаненному всё равно откажут проверки чтения и отправки.
func (h *ChannelHandler) JoinChannel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if channel.Kind == models.ChannelDirect {
		respondError(c, apperrors.ErrDirectJoin)
		return
	}

	if err := h.db.JoinChannel(channel.ID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastMembershipEvent(ws.TypeChannelJoin, channel.ID, userID)

	c.JSON(http.StatusOK, gin.H{"message": "joined channel successfully"})
}

// LeaveChannel выводит пользователя из канала
func (h *ChannelHandler) LeaveChannel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.LeaveChannel(channel, userID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastMembershipEvent(ws.TypeChannelLeave, channel.ID, userID)

	c.JSON(http.StatusOK, gin.H{"message": "left channel successfully"})
}

// GetChannelMembers получает список участников канала
func (h *ChannelHandler) GetChannelMembers(c *gin.Context) {
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

	members, err := h.db.ListActiveMembers(channel.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get members"})
		return
	}

	online := make(map[uuid.UUID]bool)
	for _, id := range h.hub.GetChannelUsers(channel.ID) {
		online[id] = true
	}

	response := make([]gin.H, len(members))
	for i, member := range members {
		response[i] = gin.H{
			"id":           member.User.ID,
			"username":     member.User.Username,
			"avatar_url":   member.User.AvatarURL,
			"role":         member.Role,
			"joined_at":    member.JoinedAt,
			"last_seen_at": member.User.LastSeenAt,
			"is_online":    online[member.User.ID],
		}
	}

	c.JSON(http.StatusOK, gin.H{"members": response})
}

// PromoteMember повышает участника до владельца
func (h *ChannelHandler) PromoteMember(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel, userID); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.PromoteToOwner(channel, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member promoted to owner"})
}

// TransferOwnership атомарно передаёт владение: старый владелец понижается,
// новый повышается, промежуточное состояние снаружи не наблюдаемо
func (h *ChannelHandler) TransferOwnership(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.TransferOwnership(channel, userID, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ownership transferred"})
}

func (h *ChannelHandler) requireOwner(channel *models.Channel, userID uuid.UUID) error {
	membership, err := h.db.GetActiveMembership(channel.ID, userID)
	if err != nil {
		return err
	}
	if membership.Role != models.RoleOwner {
		return apperrors.ErrNotAnOwner
	}
	return nil
}

func (h *ChannelHandler) broadcastMembershipEvent(eventType ws.EventType, channelID, userID uuid.UUID) {
	event := ws.Event{
		Type:      eventType,
		ChannelID: &channelID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if data, err := json.Marshal(event); err == nil {
		h.hub.SendToChannel(channelID, data)
	}
}

// formatChannelResponse форматирует ответ для канала
func formatChannelResponse(channel *models.Channel) gin.H {
	members := make([]gin.H, len(channel.Memberships))
	for i, m := range channel.Memberships {
		members[i] = gin.H{
			"id":         m.User.ID,
			"username":   m.User.Username,
			"avatar_url": m.User.AvatarURL,
			"role":       m.Role,
		}
	}

	return gin.H{
		"id":          channel.ID,
		"name":        channel.Name,
		"description": channel.Description,
		"kind":        channel.Kind,
		"created_by":  channel.CreatedBy,
		"created_at":  channel.CreatedAt,
		"members":     members,
	}
}
