package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/models"
	ws "github.com/thereayou/lazycord/internal/websocket"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *database.Database, *ws.Hub) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	d := database.NewDatabase(db)
	hub := ws.NewHub()
	return NewDispatcher(d, hub), d, hub
}

func newUser(t *testing.T, d *database.Database, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, d.SaveUser(user))
	return user
}

func recvEvent(t *testing.T, c *ws.Client) *ws.Event {
	t.Helper()

	select {
	case data := <-c.Send:
		var ev ws.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return &ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestNotifyPersistsWithoutSessions(t *testing.T) {
	dispatcher, db, _ := newTestDispatcher(t)
	alice := newUser(t, db, "alice")

	// Ни одной живой сессии: запись всё равно должна появиться
	n, err := dispatcher.Notify(alice.ID, models.NotificationSystem, "title", "body", nil)
	require.NoError(t, err)

	got, err := db.GetNotification(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "title", got.Title)
	assert.False(t, got.Read)
}

func TestNotifyPushesEventAndCount(t *testing.T) {
	dispatcher, db, hub := newTestDispatcher(t)
	alice := newUser(t, db, "alice")

	go hub.Run()
	defer hub.Stop()

	session := ws.NewClient(hub, nil, alice.ID)
	hub.Register(session)
	require.Eventually(t, func() bool {
		return len(hub.GetOnlineUsers()) == 1
	}, time.Second, 10*time.Millisecond)
	for len(session.Send) > 0 {
		<-session.Send
	}

	_, err := dispatcher.Notify(alice.ID, models.NotificationMention, "New Mention", "bob mentioned you", nil)
	require.NoError(t, err)

	ev := recvEvent(t, session)
	assert.Equal(t, ws.TypeNotification, ev.Type)
	assert.Equal(t, alice.ID, ev.UserID)

	ev = recvEvent(t, session)
	assert.Equal(t, ws.TypeNotificationCount, ev.Type)

	var count map[string]int64
	require.NoError(t, json.Unmarshal(ev.Data, &count))
	assert.Equal(t, int64(1), count["count"])
}

func TestMarkReadOwnerOnly(t *testing.T) {
	dispatcher, db, _ := newTestDispatcher(t)
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	n, err := dispatcher.Notify(alice.ID, models.NotificationSystem, "title", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, dispatcher.MarkRead(bob.ID, n.ID), apperrors.ErrNotOwnedByMe)

	require.NoError(t, dispatcher.MarkRead(alice.ID, n.ID))
	// Повторная отметка не ошибка
	require.NoError(t, dispatcher.MarkRead(alice.ID, n.ID))

	count, err := db.CountUnreadNotifications(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkAllReadPushesZero(t *testing.T) {
	dispatcher, db, hub := newTestDispatcher(t)
	alice := newUser(t, db, "alice")

	for i := 0; i < 3; i++ {
		_, err := dispatcher.Notify(alice.ID, models.NotificationMessage, "ping", "", nil)
		require.NoError(t, err)
	}

	go hub.Run()
	defer hub.Stop()

	session := ws.NewClient(hub, nil, alice.ID)
	hub.Register(session)
	require.Eventually(t, func() bool {
		return len(hub.GetOnlineUsers()) == 1
	}, time.Second, 10*time.Millisecond)
	for len(session.Send) > 0 {
		<-session.Send
	}

	require.NoError(t, dispatcher.MarkAllRead(alice.ID))

	ev := recvEvent(t, session)
	assert.Equal(t, ws.TypeNotificationCount, ev.Type)

	var count map[string]int64
	require.NoError(t, json.Unmarshal(ev.Data, &count))
	assert.Equal(t, int64(0), count["count"])
}

func TestDeleteOwnerOnly(t *testing.T) {
	dispatcher, db, _ := newTestDispatcher(t)
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	n, err := dispatcher.Notify(alice.ID, models.NotificationSystem, "title", "", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, dispatcher.Delete(bob.ID, n.ID), apperrors.ErrNotOwnedByMe)
	require.NoError(t, dispatcher.Delete(alice.ID, n.ID))

	_, err = db.GetNotification(n.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
}

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"single", "hey @alice look", []string{"alice"}},
		{"multiple unique in order", "@bob then @alice then @bob", []string{"bob", "alice"}},
		{"underscores and digits", "ping @user_42", []string{"user_42"}},
		{"too short ignored", "hi @ab", nil},
		{"no mentions", "plain text", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMentions(tt.content))
		})
	}
}

func TestEvaluateMessageSkipsSender(t *testing.T) {
	dispatcher, db, _ := newTestDispatcher(t)
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	channel, err := db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)

	msg := &models.Message{
		ChannelID: channel.ID,
		SenderID:  alice.ID,
		Content:   "@alice @bob @ghost check this",
		Kind:      models.MessageText,
	}
	require.NoError(t, db.SaveMessage(msg))

	dispatcher.EvaluateMessage(msg, alice, channel)

	// Самоупоминание и несуществующий username пропущены
	count, err := db.CountUnreadNotifications(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	list, err := db.ListUnreadNotifications(bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationMention, list[0].Kind)
	assert.Contains(t, list[0].Body, "alice mentioned you in #general")
}

func TestMentionPreviewKeepsRunesWhole(t *testing.T) {
	dispatcher, db, _ := newTestDispatcher(t)
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	channel, err := db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)

	// Кириллица по два байта на руну: граница в сто байт попадает
	// внутрь руны
	msg := &models.Message{
		ChannelID: channel.ID,
		SenderID:  alice.ID,
		Content:   "@bob " + strings.Repeat("ж", 120),
		Kind:      models.MessageText,
	}
	require.NoError(t, db.SaveMessage(msg))

	dispatcher.EvaluateMessage(msg, alice, channel)

	list, err := db.ListUnreadNotifications(bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(list[0].Payload, &payload))
	preview := payload["messagePreview"]
	assert.True(t, utf8.ValidString(preview))
	assert.LessOrEqual(t, len(preview), 100)
	assert.True(t, strings.HasPrefix(msg.Content, preview))
}
