package database

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
	"gorm.io/gorm"
)

func (d *Database) GetActiveMembership(channelID, userID uuid.UUID) (*models.ChannelMembership, error) {
	var m models.ChannelMembership
	err := d.db.
		Where("channel_id = ? AND user_id = ? AND active = ?", channelID, userID, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotAMember
		}
		return nil, errors.Wrap(err, "get membership")
	}
	return &m, nil
}

func (d *Database) ListActiveMembers(channelID uuid.UUID) ([]models.ChannelMembership, error) {
	var members []models.ChannelMembership
	err := d.db.
		Where("channel_id = ? AND active = ?", channelID, true).
		Preload("User").
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (d *Database) CountActiveOwners(tx *gorm.DB, channelID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = d.db
	}
	var count int64
	err := tx.Model(&models.ChannelMembership{}).
		Where("channel_id = ? AND role = ? AND active = ?", channelID, models.RoleOwner, true).
		Count(&count).Error
	return count, err
}

// JoinChannel добавляет активное членство MEMBER. Повторный вход при уже
// активном членстве отклоняется; запись покинувшего канал пользователя
// реактивируется, а не дублируется. Баны здесь намеренно не проверяются:
// забаненный может вернуться в список участников, но чтение и отправку
// ему всё равно запретит контроль доступа.
func (d *Database) JoinChannel(channelID, userID uuid.UUID) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ChannelMembership
		err := tx.
			Where("channel_id = ? AND user_id = ?", channelID, userID).
			First(&existing).Error

		switch {
		case err == nil && existing.Active:
			return apperrors.ErrAlreadyMember
		case err == nil:
			return tx.Model(&existing).
				Updates(map[string]interface{}{"active": true, "role": models.RoleMember}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			m := &models.ChannelMembership{
				ChannelID: channelID,
				UserID:    userID,
				Role:      models.RoleMember,
				Active:    true,
			}
			return tx.Create(m).Error
		default:
			return err
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyMember
		}
		return err
	}
	return nil
}

// LeaveChannel деактивирует членство. Последний OWNER не-DIRECT канала
// выйти не может; у DIRECT каналов владельцев нет, выход разрешён каждой
// стороне отдельно.
func (d *Database) LeaveChannel(channel *models.Channel, userID uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var m models.ChannelMembership
		err := tx.
			Where("channel_id = ? AND user_id = ? AND active = ?", channel.ID, userID, true).
			First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotAMember
			}
			return err
		}

		if channel.Kind != models.ChannelDirect && m.Role == models.RoleOwner {
			owners, err := d.CountActiveOwners(tx, channel.ID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return apperrors.ErrLastOwner
			}
		}

		return tx.Model(&m).Update("active", false).Error
	})
}

// DeactivateMembership выполняет принудительное исключение (побочный эффект бана)
func (d *Database) DeactivateMembership(tx *gorm.DB, channelID, userID uuid.UUID) error {
	if tx == nil {
		tx = d.db
	}
	return tx.Model(&models.ChannelMembership{}).
		Where("channel_id = ? AND user_id = ? AND active = ?", channelID, userID, true).
		Update("active", false).Error
}

// PromoteToOwner повышает активного участника до OWNER. У DIRECT каналов
// ролей нет
func (d *Database) PromoteToOwner(channel *models.Channel, userID uuid.UUID) error {
	if channel.Kind == models.ChannelDirect {
		return apperrors.ErrDirectOwnership
	}
	return d.db.Transaction(func(tx *gorm.DB) error {
		var m models.ChannelMembership
		err := tx.
			Where("channel_id = ? AND user_id = ? AND active = ?", channel.ID, userID, true).
			First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotAMember
			}
			return err
		}
		return tx.Model(&m).Update("role", models.RoleOwner).Error
	})
}

// TransferOwnership понижает старого владельца и повышает нового одной
// транзакцией: ни один параллельный читатель не увидит канал без владельца
func (d *Database) TransferOwnership(channel *models.Channel, fromUser, toUser uuid.UUID) error {
	if channel.Kind == models.ChannelDirect {
		return apperrors.ErrDirectOwnership
	}
	return d.db.Transaction(func(tx *gorm.DB) error {
		var from models.ChannelMembership
		err := tx.
			Where("channel_id = ? AND user_id = ? AND active = ?", channel.ID, fromUser, true).
			First(&from).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotAMember
			}
			return err
		}
		if from.Role != models.RoleOwner {
			return apperrors.ErrNotAnOwner
		}

		var to models.ChannelMembership
		err = tx.
			Where("channel_id = ? AND user_id = ? AND active = ?", channel.ID, toUser, true).
			First(&to).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotAMember
			}
			return err
		}

		if err := tx.Model(&to).Update("role", models.RoleOwner).Error; err != nil {
			return err
		}
		return tx.Model(&from).Update("role", models.RoleMember).Error
	})
}
