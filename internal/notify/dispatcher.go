// Package notify доставляет внеполосные события: упоминания, итоги
// модерации, системные уведомления. Запись в хранилище всегда происходит
// до live-пуша: уведомление не может потеряться из-за недоступной сессии.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/models"
	ws "github.com/thereayou/lazycord/internal/websocket"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

type Dispatcher struct {
	db  *database.Database
	hub *ws.Hub
}

func NewDispatcher(db *database.Database, hub *ws.Hub) *Dispatcher {
	return &Dispatcher{db: db, hub: hub}
}

// Notify сохраняет уведомление и затем best-effort пушит его вместе со
// свежим счётчиком непрочитанного во все сессии пользователя. Ошибка пуша
// не откатывает запись, она только логируется.
func (d *Dispatcher) Notify(userID uuid.UUID, kind models.NotificationKind, title, body string, payload map[string]interface{}) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Msg("failed to serialize notification payload")
		} else {
			n.Payload = data
		}
	}

	if err := d.db.SaveNotification(n); err != nil {
		return nil, err
	}

	d.pushNotification(n)
	d.pushUnreadCount(userID)

	return n, nil
}

// NotifyMention уведомляет, что пользователь упомянут в канале
func (d *Dispatcher) NotifyMention(target uuid.UUID, mentioningUsername, channelName, preview string) {
	_, err := d.Notify(target, models.NotificationMention,
		"New Mention",
		mentioningUsername+" mentioned you in #"+channelName,
		map[string]interface{}{
			"mentioningUser": mentioningUsername,
			"channelName":    channelName,
			"messagePreview": preview,
		})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", target).Msg("failed to create mention notification")
	}
}

// NotifyModeration сообщает итог модерационного действия (бан/мут наложен или снят)
func (d *Dispatcher) NotifyModeration(target uuid.UUID, title, body, channelName string) {
	_, err := d.Notify(target, models.NotificationSystem, title, body,
		map[string]interface{}{"channelName": channelName})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", target).Msg("failed to create moderation notification")
	}
}

// MarkRead монотонен: повторная отметка прочитанного уведомления это no-op
func (d *Dispatcher) MarkRead(userID, notificationID uuid.UUID) error {
	n, err := d.db.GetNotification(notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperrors.ErrNotOwnedByMe
	}
	if n.Read {
		return nil
	}
	if err := d.db.MarkNotificationRead(notificationID); err != nil {
		return err
	}
	d.pushUnreadCount(userID)
	return nil
}

// MarkAllRead отмечает всё прочитанным и пушит count=0
func (d *Dispatcher) MarkAllRead(userID uuid.UUID) error {
	if err := d.db.MarkAllNotificationsRead(userID); err != nil {
		return err
	}
	d.pushCount(userID, 0)
	return nil
}

// Delete удаляет уведомление; разрешено только владельцу
func (d *Dispatcher) Delete(userID, notificationID uuid.UUID) error {
	n, err := d.db.GetNotification(notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperrors.ErrNotOwnedByMe
	}
	if err := d.db.DeleteNotification(notificationID); err != nil {
		return err
	}
	d.pushUnreadCount(userID)
	return nil
}

func (d *Dispatcher) pushNotification(n *models.Notification) {
	payload, err := json.Marshal(map[string]interface{}{
		"id":         n.ID,
		"kind":       n.Kind,
		"title":      n.Title,
		"body":       n.Body,
		"data":       n.Payload,
		"read":       n.Read,
		"created_at": n.CreatedAt,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal notification push")
		return
	}

	event := ws.Event{
		Type:      ws.TypeNotification,
		UserID:    n.UserID,
		Data:      payload,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal notification event")
		return
	}

	d.hub.SendToUser(n.UserID, data)
}

func (d *Dispatcher) pushUnreadCount(userID uuid.UUID) {
	count, err := d.db.CountUnreadNotifications(userID)
	if err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Msg("failed to count unread notifications")
		return
	}
	d.pushCount(userID, count)
}

func (d *Dispatcher) pushCount(userID uuid.UUID, count int64) {
	payload, _ := json.Marshal(map[string]int64{"count": count})

	event := ws.Event{
		Type:      ws.TypeNotificationCount,
		UserID:    userID,
		Data:      payload,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	d.hub.SendToUser(userID, data)
}
