package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
	"gorm.io/gorm"
)

// CreateChannel создаёт канал и членство OWNER для создателя одной
// транзакцией: либо появляются оба, либо ничего
func (d *Database) CreateChannel(name, description string, kind models.ChannelKind, creator uuid.UUID) (*models.Channel, error) {
	channel := &models.Channel{
		Name:        name,
		Description: description,
		Kind:        kind,
		CreatedBy:   creator,
		CreatedAt:   time.Now(),
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return err
		}

		owner := &models.ChannelMembership{
			ChannelID: channel.ID,
			UserID:    creator,
			Role:      models.RoleOwner,
			Active:    true,
		}
		return tx.Create(owner).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "create channel")
	}

	return channel, nil
}

func (d *Database) GetChannel(id string) (*models.Channel, error) {
	var channel models.Channel
	err := d.db.
		Preload("Memberships", "active = ?", true).
		Preload("Memberships.User").
		First(&channel, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChannelNotFound
		}
		return nil, errors.Wrap(err, "get channel")
	}
	return &channel, nil
}

// GetUserChannels возвращает каналы, где у пользователя активное членство
func (d *Database) GetUserChannels(userID uuid.UUID) ([]models.Channel, error) {
	var channels []models.Channel
	err := d.db.
		Joins("JOIN channel_memberships cm ON cm.channel_id = channels.id").
		Where("cm.user_id = ? AND cm.active = ?", userID, true).
		Preload("Memberships", "active = ?", true).
		Preload("Memberships.User").
		Find(&channels).Error
	return channels, err
}

func (d *Database) GetPublicChannels() ([]models.Channel, error) {
	var channels []models.Channel
	err := d.db.
		Where("kind = ?", models.ChannelPublic).
		Order("created_at ASC").
		Find(&channels).Error
	return channels, err
}

// GetOrCreateDirectChannel идемпотентен: диалог ищется по отсортированной
// паре участников, уникальный индекс по pair_key страхует от гонки двух
// одновременных созданий
func (d *Database) GetOrCreateDirectChannel(userA, userB uuid.UUID) (*models.Channel, error) {
	pairKey := models.DirectPairKey(userA, userB)

	var channel models.Channel
	err := d.db.Where("pair_key = ?", pairKey).First(&channel).Error
	if err == nil {
		return &channel, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find direct channel")
	}

	channel = models.Channel{
		Name:      "Direct",
		Kind:      models.ChannelDirect,
		PairKey:   &pairKey,
		CreatedBy: userA,
		CreatedAt: time.Now(),
	}

	err = d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&channel).Error; err != nil {
			return err
		}
		for _, uid := range []uuid.UUID{userA, userB} {
			m := &models.ChannelMembership{
				ChannelID: channel.ID,
				UserID:    uid,
				Role:      models.RoleMember,
				Active:    true,
			}
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Конкурент успел первым, возвращаем его канал
			var existing models.Channel
			if ferr := d.db.Where("pair_key = ?", pairKey).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, errors.Wrap(err, "create direct channel")
	}

	return &channel, nil
}

func (d *Database) UpdateChannel(channel *models.Channel) error {
	return d.db.Save(channel).Error
}

// DeleteChannel удаляет канал вместе с сообщениями и членствами
func (d *Database) DeleteChannel(id string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "channel_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ChannelMembership{}, "channel_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Channel{}, "id = ?", id).Error
	})
}
