package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
	"gorm.io/gorm"
)

func (d *Database) SaveNotification(n *models.Notification) error {
	if err := d.db.Create(n).Error; err != nil {
		return errors.Wrap(err, "save notification")
	}
	return nil
}

func (d *Database) GetNotification(id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	if err := d.db.First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, errors.Wrap(err, "get notification")
	}
	return &n, nil
}

func (d *Database) ListNotifications(userID uuid.UUID, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := d.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (d *Database) ListUnreadNotifications(userID uuid.UUID) ([]models.Notification, error) {
	var list []models.Notification
	err := d.db.
		Where("user_id = ? AND read = ?", userID, false).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (d *Database) CountUnreadNotifications(userID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkNotificationRead монотонен: повторная отметка уже прочитанного не
// ошибка, а no-op
func (d *Database) MarkNotificationRead(id uuid.UUID) error {
	now := time.Now()
	return d.db.Model(&models.Notification{}).
		Where("id = ? AND read = ?", id, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
}

func (d *Database) MarkAllNotificationsRead(userID uuid.UUID) error {
	now := time.Now()
	return d.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
}

// DeleteNotification удаляет уведомление; право владельца проверяет
// вызывающий
func (d *Database) DeleteNotification(id uuid.UUID) error {
	return d.db.Delete(&models.Notification{}, "id = ?", id).Error
}
