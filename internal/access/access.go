// Package access отвечает на вопрос "может ли пользователь читать или
// писать в канал прямо сейчас". Проверки чистые: ни одна из них не меняет
// состояние, поэтому их можно звать на каждом чтении и каждой отправке.
package access

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

// Store описывает подмножество хранилища, нужное проверкам доступа
type Store interface {
	GetActiveMembership(channelID, userID uuid.UUID) (*models.ChannelMembership, error)
	FindActiveBan(userID, channelID uuid.UUID) (*models.ChannelBan, error)
	FindActiveMute(userID, channelID uuid.UUID) (*models.ChannelMute, error)
}

type Checker struct {
	store Store
	now   func() time.Time
}

func NewChecker(store Store) *Checker {
	return &Checker{store: store, now: time.Now}
}

// WithClock подменяет источник времени (для тестов истечения сроков)
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// CanRead: PUBLIC каналы читаются без членства, PRIVATE и DIRECT только
// участниками; действующий бан запрещает чтение в любом случае
func (c *Checker) CanRead(userID uuid.UUID, channel *models.Channel) error {
	if channel.Kind != models.ChannelPublic {
		if _, err := c.store.GetActiveMembership(channel.ID, userID); err != nil {
			return err
		}
	}

	banned, err := c.effectivelyBanned(userID, channel.ID)
	if err != nil {
		return err
	}
	if banned {
		return apperrors.ErrBanned
	}

	return nil
}

// CanPost: писать могут только участники; бан запрещает всё, мут только
// отправку
func (c *Checker) CanPost(userID uuid.UUID, channel *models.Channel) error {
	if _, err := c.store.GetActiveMembership(channel.ID, userID); err != nil {
		return err
	}

	banned, err := c.effectivelyBanned(userID, channel.ID)
	if err != nil {
		return err
	}
	if banned {
		return apperrors.ErrBanned
	}

	mute, err := c.store.FindActiveMute(userID, channel.ID)
	if err != nil {
		return err
	}
	if mute != nil && mute.Effective(c.now()) {
		return apperrors.ErrMuted
	}

	return nil
}

func (c *Checker) effectivelyBanned(userID, channelID uuid.UUID) (bool, error) {
	ban, err := c.store.FindActiveBan(userID, channelID)
	if err != nil {
		return false, err
	}
	return ban != nil && ban.Effective(c.now()), nil
}
