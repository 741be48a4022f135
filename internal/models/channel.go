package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChannelKind string

const (
	ChannelPublic  ChannelKind = "PUBLIC"
	ChannelPrivate ChannelKind = "PRIVATE"
	ChannelDirect  ChannelKind = "DIRECT"
)

type Channel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string
	Kind        ChannelKind `gorm:"not null;check:kind IN ('PUBLIC','PRIVATE','DIRECT')"`
	// PairKey заполняется только для DIRECT каналов: отсортированная пара
	// участников, чтобы один и тот же диалог не создавался дважды
	PairKey   *string `gorm:"uniqueIndex"`
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Связи
	Memberships []ChannelMembership `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE"`
	Messages    []Message           `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE"`
}

func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// DirectPairKey строит ключ диалога по неупорядоченной паре участников
func DirectPairKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	if strings.Compare(ids[0], ids[1]) > 0 {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return ids[0] + ":" + ids[1]
}
