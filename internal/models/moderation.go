package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChannelBan описывает бан пользователя в канале. ExpiresAt == nil означает
// постоянный бан. Флаг Active не сбрасывается по таймеру: истечение
// всегда вычисляется предикатом Effective на момент чтения.
type ChannelBan struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"not null;index:idx_ban_active,unique,where:active"`
	ChannelID  uuid.UUID `gorm:"not null;index:idx_ban_active,unique,where:active"`
	Reason     string
	BannedBy   uuid.UUID `gorm:"not null"`
	Active     bool      `gorm:"not null;default:true"`
	ExpiresAt  *time.Time
	CreatedAt  time.Time
	LiftedBy   *uuid.UUID
	LiftedAt   *time.Time
	LiftReason string
}

func (b *ChannelBan) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Effective сообщает, действует ли бан в момент now
func (b *ChannelBan) Effective(now time.Time) bool {
	return b.Active && (b.ExpiresAt == nil || b.ExpiresAt.After(now))
}

// ChannelMute запрещает писать в канал; чтение остаётся доступным.
// Семантика сроков и снятия идентична ChannelBan.
type ChannelMute struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"not null;index:idx_mute_active,unique,where:active"`
	ChannelID uuid.UUID `gorm:"not null;index:idx_mute_active,unique,where:active"`
	Reason    string
	MutedBy   uuid.UUID `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	ExpiresAt *time.Time
	CreatedAt time.Time
	LiftedBy  *uuid.UUID
	LiftedAt  *time.Time
}

func (m *ChannelMute) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Effective сообщает, действует ли мут в момент now
func (m *ChannelMute) Effective(now time.Time) bool {
	return m.Active && (m.ExpiresAt == nil || m.ExpiresAt.After(now))
}
