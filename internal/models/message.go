package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/lazycord/pkg/apperrors"
	"gorm.io/gorm"
)

type MessageKind string

const (
	MessageText   MessageKind = "TEXT"
	MessageImage  MessageKind = "IMAGE"
	MessageFile   MessageKind = "FILE"
	MessageSystem MessageKind = "SYSTEM"
)

// MaxMessageLength ограничивает длину содержимого сообщения
const MaxMessageLength = 4000

// ParseClientKind проверяет вид сообщения, пришедший от клиента. Пустая
// строка означает TEXT; SYSTEM назначается только сервером и от клиента
// не принимается.
func ParseClientKind(raw string) (MessageKind, error) {
	switch kind := MessageKind(raw); kind {
	case "":
		return MessageText, nil
	case MessageText, MessageImage, MessageFile:
		return kind, nil
	default:
		return "", apperrors.ErrInvalidMessageKind
	}
}

type Message struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	ChannelID uuid.UUID   `gorm:"not null;index:idx_message_order,priority:1"`
	SenderID  uuid.UUID   `gorm:"not null"`
	Content   string      `gorm:"not null"`
	Kind      MessageKind `gorm:"not null;default:'TEXT';check:kind IN ('TEXT','IMAGE','FILE','SYSTEM')"`
	// AttachmentURL хранит непрозрачную ссылку из внешнего файлового сервиса
	AttachmentURL string
	Edited        bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"index:idx_message_order,priority:2"`
	UpdatedAt     time.Time

	// Связи
	Sender  User    `gorm:"foreignKey:SenderID"`
	Channel Channel `gorm:"foreignKey:ChannelID"`
}

// BeforeCreate назначает UUIDv7: идентификаторы монотонны в порядке
// добавления, поэтому ключ сортировки (created_at, id) остаётся тотальным
// даже при совпадении отметок времени.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id
	}
	return nil
}
