package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationMention         NotificationKind = "MENTION"
	NotificationMessage         NotificationKind = "MESSAGE"
	NotificationMissionComplete NotificationKind = "MISSION_COMPLETE"
	NotificationLevelUp         NotificationKind = "LEVEL_UP"
	NotificationSystem          NotificationKind = "SYSTEM"
)

type Notification struct {
	ID     uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID        `gorm:"not null;index"`
	Kind   NotificationKind `gorm:"not null"`
	Title  string           `gorm:"not null"`
	Body   string
	// Payload хранит произвольные структурированные данные события
	Payload   json.RawMessage `gorm:"type:jsonb"`
	Read      bool            `gorm:"not null;default:false"`
	ReadAt    *time.Time
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
