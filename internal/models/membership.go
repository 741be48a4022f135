package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRole string

const (
	RoleOwner  MemberRole = "OWNER"
	RoleMember MemberRole = "MEMBER"
)

// ChannelMembership описывает участие пользователя в канале. Запись не удаляется
// при выходе, а помечается Active=false; активной может быть не более
// одной записи на пару (канал, пользователь).
type ChannelMembership struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ChannelID uuid.UUID  `gorm:"not null;index:idx_membership_active,unique,where:active"`
	UserID    uuid.UUID  `gorm:"not null;index:idx_membership_active,unique,where:active"`
	Role      MemberRole `gorm:"not null;default:'MEMBER';check:role IN ('OWNER','MEMBER')"`
	Active    bool       `gorm:"not null;default:true"`
	JoinedAt  time.Time

	User    User    `gorm:"foreignKey:UserID"`
	Channel Channel `gorm:"foreignKey:ChannelID"`
}

func (m *ChannelMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}
