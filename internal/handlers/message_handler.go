package handlers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/lazycord/internal/access"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/handlers/dto"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/internal/notify"
	ws "github.com/thereayou/lazycord/internal/websocket"
)

type MessageHandler struct {
	db         *database.Database
	hub        *ws.Hub
	checker    *access.Checker
	dispatcher *notify.Dispatcher
}

func NewMessageHandler(db *database.Database, hub *ws.Hub, checker *access.Checker, dispatcher *notify.Dispatcher) *MessageHandler {
	return &MessageHandler{
		db:         db,
		hub:        hub,
		checker:    checker,
		dispatcher: dispatcher,
	}
}

func (h *MessageHandler) HandleEvent(client *ws.Client, msg *ws.Event) error {
	switch msg.Type {
	case ws.TypeMessage:
		return h.handleTextMessage(client, msg)

	case ws.TypeMessageEdit:
		return h.handleMessageEdit(client, msg)

	case ws.TypeMessageDelete:
		return h.handleMessageDelete(client, msg)

	default:
		log.Warn().Str("type", string(msg.Type)).Msg("unknown event type")
		return nil
	}
}

// AppendMessage является единственной точкой записи в лог сообщений. Контроль доступа
// выполняется до записи; рассылка подписчикам и разбор упоминаний идут
// уже после того, как сообщение сохранено, и на его судьбу не влияют.
func (h *MessageHandler) AppendMessage(senderID uuid.UUID, channel *models.Channel, content, kind, attachmentURL string) (*models.Message, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	if err := h.checker.CanPost(senderID, channel); err != nil {
		return nil, err
	}

	messageKind, err := models.ParseClientKind(kind)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ChannelID:     channel.ID,
		SenderID:      senderID,
		Content:       content,
		Kind:          messageKind,
		AttachmentURL: attachmentURL,
		CreatedAt:     time.Now(),
	}

	if err := h.db.SaveMessage(message); err != nil {
		return nil, err
	}

	sender, err := h.db.GetUser(senderID.String())
	if err != nil {
		log.Error().Err(err).Msg("failed to load sender for broadcast")
		return message, nil
	}

	h.broadcastMessage(message, sender)
	h.dispatcher.EvaluateMessage(message, sender, channel)

	go h.db.UpdateLastSeen(senderID.String())

	return message, nil
}

func (h *MessageHandler) handleTextMessage(client *ws.Client, msg *ws.Event) error {
	if msg.ChannelID == nil {
		return ws.ErrInvalidMessage
	}

	if !client.IsSubscribed(*msg.ChannelID) {
		return ws.ErrNotSubscribed
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return err
	}

	channel, err := h.db.GetChannel(msg.ChannelID.String())
	if err != nil {
		return err
	}

	_, err = h.AppendMessage(client.UserID, channel, payload.Content, payload.Kind, payload.AttachmentURL)
	return err
}

func (h *MessageHandler) handleMessageEdit(client *ws.Client, msg *ws.Event) error {
	type EditPayload struct {
		MessageID uuid.UUID `json:"message_id"`
		Content   string    `json:"content"`
	}

	var payload EditPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return err
	}

	if err := validateContent(payload.Content); err != nil {
		return err
	}

	message, err := h.db.GetMessage(payload.MessageID.String())
	if err != nil {
		return err
	}

	if message.SenderID != client.UserID {
		return ws.ErrUnauthorized
	}

	message.Content = payload.Content
	message.Edited = true

	if err := h.db.UpdateMessage(message); err != nil {
		return err
	}

	h.broadcastMessageEdit(message)

	return nil
}

func (h *MessageHandler) handleMessageDelete(client *ws.Client, msg *ws.Event) error {
	type DeletePayload struct {
		MessageID uuid.UUID `json:"message_id"`
	}

	var payload DeletePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return err
	}

	message, err := h.db.GetMessage(payload.MessageID.String())
	if err != nil {
		return err
	}

	if message.SenderID != client.UserID {
		return ws.ErrUnauthorized
	}

	if err := h.db.DeleteMessage(payload.MessageID.String()); err != nil {
		return err
	}

	h.broadcastMessageDelete(message)

	return nil
}

func (h *MessageHandler) broadcastMessage(message *models.Message, sender *models.User) {
	response := dto.MessageResponse{
		ID:            message.ID,
		ChannelID:     message.ChannelID,
		SenderID:      message.SenderID,
		Content:       message.Content,
		Kind:          string(message.Kind),
		AttachmentURL: message.AttachmentURL,
		Edited:        message.Edited,
		CreatedAt:     message.CreatedAt,
		Sender: dto.UserInfo{
			ID:        sender.ID,
			Username:  sender.Username,
			AvatarURL: sender.AvatarURL,
		},
	}

	h.publish(ws.TypeMessage, message.ChannelID, message.SenderID, response)
}

func (h *MessageHandler) broadcastMessageEdit(message *models.Message) {
	h.publish(ws.TypeMessageEdit, message.ChannelID, message.SenderID, map[string]interface{}{
		"message_id": message.ID,
		"content":    message.Content,
		"edited":     true,
		"updated_at": message.UpdatedAt,
	})
}

func (h *MessageHandler) broadcastMessageDelete(message *models.Message) {
	h.publish(ws.TypeMessageDelete, message.ChannelID, message.SenderID, map[string]interface{}{
		"message_id": message.ID,
	})
}

func (h *MessageHandler) publish(eventType ws.EventType, channelID, userID uuid.UUID, data interface{}) {
	event := ws.Event{
		Type:      eventType,
		ChannelID: &channelID,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast payload")
		return
	}
	event.Data = payload

	eventData, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast event")
		return
	}

	h.hub.SendToChannel(channelID, eventData)
}

// LoadChannelHistory отдаёт страницу истории для гидрации представления
func (h *MessageHandler) LoadChannelHistory(channelID uuid.UUID, limit int, beforeID *uuid.UUID) ([]dto.MessageResponse, error) {
	messages, err := h.db.RecentMessages(channelID, limit, beforeID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MessageResponse, len(messages))
	for i, msg := range messages {
		responses[i] = dto.MessageResponse{
			ID:            msg.ID,
			ChannelID:     msg.ChannelID,
			SenderID:      msg.SenderID,
			Content:       msg.Content,
			Kind:          string(msg.Kind),
			AttachmentURL: msg.AttachmentURL,
			Edited:        msg.Edited,
			CreatedAt:     msg.CreatedAt,
			Sender: dto.UserInfo{
				ID:        msg.Sender.ID,
				Username:  msg.Sender.Username,
				AvatarURL: msg.Sender.AvatarURL,
			},
		}
	}

	return responses, nil
}
