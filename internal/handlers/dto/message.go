package dto

import (
	"time"

	"github.com/google/uuid"
)

// MessagePayload структура для входящих сообщений
type MessagePayload struct {
	Content       string `json:"content"`
	Kind          string `json:"kind,omitempty"` // TEXT, IMAGE, FILE
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// MessageResponse структура для исходящих сообщений
type MessageResponse struct {
	ID            uuid.UUID `json:"id"`
	ChannelID     uuid.UUID `json:"channel_id"`
	SenderID      uuid.UUID `json:"sender_id"`
	Content       string    `json:"content"`
	Kind          string    `json:"kind"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	Edited        bool      `json:"edited"`
	CreatedAt     time.Time `json:"created_at"`
	Sender        UserInfo  `json:"sender"`
}

type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
