package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/middleware"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/internal/notify"
	"github.com/thereayou/lazycord/pkg/apperrors"
	"github.com/thereayou/lazycord/pkg/duration"
)

type ModerationHandler struct {
	db         *database.Database
	dispatcher *notify.Dispatcher
}

func NewModerationHandler(db *database.Database, dispatcher *notify.Dispatcher) *ModerationHandler {
	return &ModerationHandler{db: db, dispatcher: dispatcher}
}

// BanUser накладывает бан; субъект исключается из списка участников
func (h *ModerationHandler) BanUser(c *gin.Context) {
	actorID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel.ID, actorID); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		UserID   uuid.UUID `json:"user_id" binding:"required"`
		Reason   string    `json:"reason"`
		Duration string    `json:"duration"` // напр. "1 hour", "2 days", "PERMANENT"
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expiry, err := duration.Parse(req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	ban, err := h.db.ImposeBan(req.UserID, channel.ID, req.Reason, actorID, expiry)
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.NotifyModeration(req.UserID,
		"You were banned",
		"You were banned from #"+channel.Name, channel.Name)

	c.JSON(http.StatusCreated, formatBanResponse(ban))
}

// UnbanUser снимает бан; членство автоматически не восстанавливается
func (h *ModerationHandler) UnbanUser(c *gin.Context) {
	actorID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel.ID, actorID); err != nil {
		respondError(c, err)
		return
	}

	banID, err := uuid.Parse(c.Param("banId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ban id"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&req)

	if err := h.db.LiftBan(banID, actorID, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ban lifted"})
}

// MuteUser запрещает пользователю писать; чтение остаётся доступным
func (h *ModerationHandler) MuteUser(c *gin.Context) {
	actorID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel.ID, actorID); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		UserID   uuid.UUID `json:"user_id" binding:"required"`
		Reason   string    `json:"reason"`
		Duration string    `json:"duration"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expiry, err := duration.Parse(req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	mute, err := h.db.ImposeMute(req.UserID, channel.ID, req.Reason, actorID, expiry)
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.NotifyModeration(req.UserID,
		"You were muted",
		"You were muted in #"+channel.Name, channel.Name)

	c.JSON(http.StatusCreated, formatMuteResponse(mute))
}

func (h *ModerationHandler) UnmuteUser(c *gin.Context) {
	actorID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel.ID, actorID); err != nil {
		respondError(c, err)
		return
	}

	muteID, err := uuid.Parse(c.Param("muteId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mute id"})
		return
	}

	if err := h.db.LiftMute(muteID, actorID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "mute lifted"})
}

// GetChannelBans возвращает действующие баны канала
func (h *ModerationHandler) GetChannelBans(c *gin.Context) {
	actorID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel.ID, actorID); err != nil {
		respondError(c, err)
		return
	}

	bans, err := h.db.ListActiveBans(channel.ID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bans"})
		return
	}

	response := make([]gin.H, len(bans))
	for i := range bans {
		response[i] = formatBanResponse(&bans[i])
	}

	c.JSON(http.StatusOK, gin.H{"bans": response})
}

func (h *ModerationHandler) GetChannelMutes(c *gin.Context) {
	actorID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	channel, err := h.db.GetChannel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.requireOwner(channel.ID, actorID); err != nil {
		respondError(c, err)
		return
	}

	mutes, err := h.db.ListActiveMutes(channel.ID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list mutes"})
		return
	}

	response := make([]gin.H, len(mutes))
	for i := range mutes {
		response[i] = formatMuteResponse(&mutes[i])
	}

	c.JSON(http.StatusOK, gin.H{"mutes": response})
}

func (h *ModerationHandler) requireOwner(channelID, userID uuid.UUID) error {
	membership, err := h.db.GetActiveMembership(channelID, userID)
	if err != nil {
		return err
	}
	if membership.Role != models.RoleOwner {
		return apperrors.ErrNotAnOwner
	}
	return nil
}

func formatBanResponse(ban *models.ChannelBan) gin.H {
	response := gin.H{
		"id":         ban.ID,
		"user_id":    ban.UserID,
		"channel_id": ban.ChannelID,
		"reason":     ban.Reason,
		"banned_by":  ban.BannedBy,
		"active":     ban.Active,
		"created_at": ban.CreatedAt,
	}
	if ban.ExpiresAt != nil {
		response["expires_at"] = ban.ExpiresAt
	}
	return response
}

func formatMuteResponse(mute *models.ChannelMute) gin.H {
	response := gin.H{
		"id":         mute.ID,
		"user_id":    mute.UserID,
		"channel_id": mute.ChannelID,
		"reason":     mute.Reason,
		"muted_by":   mute.MutedBy,
		"active":     mute.Active,
		"created_at": mute.CreatedAt,
	}
	if mute.ExpiresAt != nil {
		response["expires_at"] = mute.ExpiresAt
	}
	return response
}
