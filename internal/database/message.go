package database

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
	"gorm.io/gorm"
)

func (d *Database) SaveMessage(message *models.Message) error {
	if err := d.db.Create(message).Error; err != nil {
		return errors.Wrap(err, "save message")
	}
	return nil
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.Preload("Sender").First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, errors.Wrap(err, "get message")
	}
	return &message, nil
}

func (d *Database) UpdateMessage(message *models.Message) error {
	return d.db.Save(message).Error
}

func (d *Database) DeleteMessage(id string) error {
	return d.db.Delete(&models.Message{}, "id = ?", id).Error
}

// RecentMessages отдаёт последние limit сообщений канала, новые первыми.
// Сортировка (created_at, id) даёт тотальный порядок даже при совпадении
// отметок времени: идентификаторы сообщений монотонны.
func (d *Database) RecentMessages(channelID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.Where("channel_id = ?", channelID)

	// При заданном beforeID отдаём более старую страницу
	if beforeID != nil {
		var before models.Message
		if err := d.db.First(&before, "id = ?", beforeID).Error; err == nil {
			query = query.Where(
				"created_at < ? OR (created_at = ? AND id < ?)",
				before.CreatedAt, before.CreatedAt, before.ID,
			)
		}
	}

	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "recent messages")
	}

	return messages, nil
}
