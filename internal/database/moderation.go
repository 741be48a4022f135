package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
	"gorm.io/gorm"
)

// ImposeBan создаёт бан и принудительно исключает пользователя из списка
// участников. Если по паре уже висит действующий бан, это отказ; просроченная,
// но ещё активная запись гасится в той же транзакции, чтобы частичный
// уникальный индекс по активным банам оставался корректным.
func (d *Database) ImposeBan(subject, channelID uuid.UUID, reason string, actor uuid.UUID, expiry *time.Duration) (*models.ChannelBan, error) {
	now := time.Now()

	ban := &models.ChannelBan{
		UserID:    subject,
		ChannelID: channelID,
		Reason:    reason,
		BannedBy:  actor,
		Active:    true,
		CreatedAt: now,
	}
	if expiry != nil {
		t := now.Add(*expiry)
		ban.ExpiresAt = &t
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ChannelBan
		err := tx.
			Where("user_id = ? AND channel_id = ? AND active = ?", subject, channelID, true).
			First(&existing).Error
		switch {
		case err == nil && existing.Effective(now):
			return apperrors.ErrAlreadyBanned
		case err == nil:
			if err := tx.Model(&existing).Update("active", false).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Create(ban).Error; err != nil {
			return err
		}

		return d.DeactivateMembership(tx, channelID, subject)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAlreadyBanned
		}
		return nil, err
	}

	return ban, nil
}

// LiftBan снимает бан; переход необратим, повторная активация записи
// невозможна, новый бан создаётся отдельной записью
func (d *Database) LiftBan(banID uuid.UUID, actor uuid.UUID, reason string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var ban models.ChannelBan
		if err := tx.First(&ban, "id = ?", banID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBanNotFound
			}
			return err
		}
		if !ban.Active {
			return apperrors.ErrNotBanned
		}

		now := time.Now()
		return tx.Model(&ban).Updates(map[string]interface{}{
			"active":      false,
			"lifted_by":   actor,
			"lifted_at":   now,
			"lift_reason": reason,
		}).Error
	})
}

// ImposeMute аналогичен ImposeBan, но членство не трогает
func (d *Database) ImposeMute(subject, channelID uuid.UUID, reason string, actor uuid.UUID, expiry *time.Duration) (*models.ChannelMute, error) {
	now := time.Now()

	mute := &models.ChannelMute{
		UserID:    subject,
		ChannelID: channelID,
		Reason:    reason,
		MutedBy:   actor,
		Active:    true,
		CreatedAt: now,
	}
	if expiry != nil {
		t := now.Add(*expiry)
		mute.ExpiresAt = &t
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ChannelMute
		err := tx.
			Where("user_id = ? AND channel_id = ? AND active = ?", subject, channelID, true).
			First(&existing).Error
		switch {
		case err == nil && existing.Effective(now):
			return apperrors.ErrAlreadyMuted
		case err == nil:
			if err := tx.Model(&existing).Update("active", false).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Create(mute).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAlreadyMuted
		}
		return nil, err
	}

	return mute, nil
}

func (d *Database) LiftMute(muteID uuid.UUID, actor uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var mute models.ChannelMute
		if err := tx.First(&mute, "id = ?", muteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrMuteNotFound
			}
			return err
		}
		if !mute.Active {
			return apperrors.ErrNotMuted
		}

		now := time.Now()
		return tx.Model(&mute).Updates(map[string]interface{}{
			"active":    false,
			"lifted_by": actor,
			"lifted_at": now,
		}).Error
	})
}

// FindActiveBan возвращает активную запись бана без учёта срока; срок
// оценивает вызывающий через Effective
func (d *Database) FindActiveBan(userID, channelID uuid.UUID) (*models.ChannelBan, error) {
	var ban models.ChannelBan
	err := d.db.
		Where("user_id = ? AND channel_id = ? AND active = ?", userID, channelID, true).
		First(&ban).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find active ban")
	}
	return &ban, nil
}

func (d *Database) FindActiveMute(userID, channelID uuid.UUID) (*models.ChannelMute, error) {
	var mute models.ChannelMute
	err := d.db.
		Where("user_id = ? AND channel_id = ? AND active = ?", userID, channelID, true).
		First(&mute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find active mute")
	}
	return &mute, nil
}

// IsEffectivelyBanned вычисляет предикат "active И не истёк" на момент now
func (d *Database) IsEffectivelyBanned(userID, channelID uuid.UUID, now time.Time) (bool, error) {
	ban, err := d.FindActiveBan(userID, channelID)
	if err != nil {
		return false, err
	}
	return ban != nil && ban.Effective(now), nil
}

func (d *Database) IsEffectivelyMuted(userID, channelID uuid.UUID, now time.Time) (bool, error) {
	mute, err := d.FindActiveMute(userID, channelID)
	if err != nil {
		return false, err
	}
	return mute != nil && mute.Effective(now), nil
}

// ListActiveBans возвращает действующие баны канала
func (d *Database) ListActiveBans(channelID uuid.UUID, now time.Time) ([]models.ChannelBan, error) {
	var bans []models.ChannelBan
	err := d.db.
		Where("channel_id = ? AND active = ? AND (expires_at IS NULL OR expires_at > ?)", channelID, true, now).
		Order("created_at DESC").
		Find(&bans).Error
	return bans, err
}

func (d *Database) ListActiveMutes(channelID uuid.UUID, now time.Time) ([]models.ChannelMute, error) {
	var mutes []models.ChannelMute
	err := d.db.
		Where("channel_id = ? AND active = ? AND (expires_at IS NULL OR expires_at > ?)", channelID, true, now).
		Order("created_at DESC").
		Find(&mutes).Error
	return mutes, err
}
