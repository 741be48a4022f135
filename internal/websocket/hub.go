package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// EventType определяет типы событий
type EventType string

const (
	// Системные типы
	TypeConnect    EventType = "connect"
	TypeDisconnect EventType = "disconnect"
	TypePing       EventType = "ping"
	TypePong       EventType = "pong"

	// Типы сообщений
	TypeMessage       EventType = "message"
	TypeMessageEdit   EventType = "message_edit"
	TypeMessageDelete EventType = "message_delete"

	// Типы каналов
	TypeChannelJoin  EventType = "channel_join"
	TypeChannelLeave EventType = "channel_leave"
	TypeChannelUsers EventType = "channel_users"

	// Типы уведомлений
	TypeNotification      EventType = "notification"
	TypeNotificationCount EventType = "notification_count"

	// Типы статусов
	TypeUserOnline  EventType = "user_online"
	TypeUserOffline EventType = "user_offline"
)

type Event struct {
	Type      EventType       `json:"type"`
	ChannelID *uuid.UUID      `json:"channel_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	// Подписки этой сессии; живут только пока живо соединение
	Channels map[uuid.UUID]bool
	Hub      *Hub
	mu       sync.RWMutex
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько сессий)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Подписки: канал -> подписанные сессии
	channels map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		channels:    make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Debug().
		Stringer("client_id", client.ID).
		Stringer("user_id", client.UserID).
		Msg("client registered")

	h.notifyUserStatus(client.UserID, TypeUserOnline)
}

// unregisterClient снимает все подписки сессии: после отключения не должно
// оставаться осиротевших целей рассылки
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for channelID := range client.Channels {
		h.removeFromChannelUnsafe(client, channelID)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
			h.notifyUserStatus(client.UserID, TypeUserOffline)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Debug().
		Stringer("client_id", client.ID).
		Stringer("user_id", client.UserID).
		Msg("client unregistered")
}

// Subscribe подписывает сессию на канал; повторная подписка той же сессии
// ничего не меняет. Остальным подписчикам уходит системное событие о подключении.
func (h *Hub) Subscribe(client *Client, channelID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[channelID]; !ok {
		h.channels[channelID] = make(map[uuid.UUID]*Client)
	}

	if _, already := h.channels[channelID][client.ID]; already {
		return
	}

	h.channels[channelID][client.ID] = client
	client.mu.Lock()
	client.Channels[channelID] = true
	client.mu.Unlock()

	joinMsg := Event{
		Type:      TypeChannelJoin,
		ChannelID: &channelID,
		UserID:    client.UserID,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(joinMsg); err == nil {
		h.publishToChannelExcept(channelID, data, client.ID)
	}

	h.sendChannelUsers(client, channelID)
}

// Unsubscribe отписывает сессию от канала
func (h *Hub) Unsubscribe(client *Client, channelID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromChannelUnsafe(client, channelID)
}

func (h *Hub) removeFromChannelUnsafe(client *Client, channelID uuid.UUID) {
	channel, ok := h.channels[channelID]
	if !ok {
		return
	}
	if _, ok := channel[client.ID]; !ok {
		return
	}

	delete(channel, client.ID)
	client.mu.Lock()
	delete(client.Channels, channelID)
	client.mu.Unlock()

	if len(channel) == 0 {
		delete(h.channels, channelID)
		return
	}

	leaveMsg := Event{
		Type:      TypeChannelLeave,
		ChannelID: &channelID,
		UserID:    client.UserID,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(leaveMsg); err == nil {
		h.publishToChannelExcept(channelID, data, client.ID)
	}
}

// SendToUser доставляет событие во все живые сессии пользователя.
// Доставка best-effort: переполненная очередь сессии событие теряет.
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- message:
			default:
				log.Warn().Stringer("client_id", client.ID).Msg("send channel full, event dropped")
			}
		}
	}
}

// SendToChannel рассылает событие всем подписчикам канала на момент
// публикации. Блокировка на всю рассылку сохраняет порядок публикаций в
// пределах канала.
func (h *Hub) SendToChannel(channelID uuid.UUID, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.publishToChannelExcept(channelID, message, uuid.Nil)
}

func (h *Hub) publishToChannelExcept(channelID uuid.UUID, message []byte, excludeID uuid.UUID) {
	if channel, ok := h.channels[channelID]; ok {
		for _, client := range channel {
			if client.ID != excludeID {
				select {
				case client.Send <- message:
				default:
					log.Warn().Stringer("client_id", client.ID).Msg("send channel full, event dropped")
				}
			}
		}
	}
}

func (h *Hub) sendChannelUsers(client *Client, channelID uuid.UUID) {
	users := make([]uuid.UUID, 0)

	if channel, ok := h.channels[channelID]; ok {
		userMap := make(map[uuid.UUID]bool)
		for _, c := range channel {
			userMap[c.UserID] = true
		}

		for userID := range userMap {
			users = append(users, userID)
		}
	}

	msg := Event{
		Type:      TypeChannelUsers,
		ChannelID: &channelID,
		UserID:    client.UserID,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(users); err == nil {
		msg.Data = data
		if msgData, err := json.Marshal(msg); err == nil {
			select {
			case client.Send <- msgData:
			default:
				log.Warn().Stringer("client_id", client.ID).Msg("failed to send channel users")
			}
		}
	}
}

// notifyUserStatus уведомляет о статусе пользователя
func (h *Hub) notifyUserStatus(userID uuid.UUID, status EventType) {
	msg := Event{
		Type:      status,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

func (h *Hub) ping() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Event{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// GetOnlineUsers возвращает список онлайн пользователей
func (h *Hub) GetOnlineUsers() []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

// GetChannelUsers возвращает пользователей, подписанных на канал
func (h *Hub) GetChannelUsers(channelID uuid.UUID) []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	userMap := make(map[uuid.UUID]bool)
	if channel, ok := h.channels[channelID]; ok {
		for _, client := range channel {
			userMap[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}
