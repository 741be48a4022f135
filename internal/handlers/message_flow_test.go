package handlers

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thereayou/lazycord/internal/access"
	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/internal/notify"
	ws "github.com/thereayou/lazycord/internal/websocket"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

type env struct {
	db       *database.Database
	hub      *ws.Hub
	messages *MessageHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	d := database.NewDatabase(db)
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	checker := access.NewChecker(d)
	dispatcher := notify.NewDispatcher(d, hub)

	return &env{
		db:       d,
		hub:      hub,
		messages: NewMessageHandler(d, hub, checker, dispatcher),
	}
}

func (e *env) user(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, e.db.SaveUser(user))
	return user
}

// session регистрирует в hub сессию без сетевого соединения
func (e *env) session(t *testing.T, user *models.User) *ws.Client {
	t.Helper()

	client := ws.NewClient(e.hub, nil, user.ID)
	e.hub.Register(client)
	require.Eventually(t, func() bool {
		return isOnline(e.hub, user)
	}, time.Second, 10*time.Millisecond)
	return client
}

func isOnline(hub *ws.Hub, user *models.User) bool {
	for _, id := range hub.GetOnlineUsers() {
		if id == user.ID {
			return true
		}
	}
	return false
}

func drainSession(c *ws.Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

func recvTyped(t *testing.T, c *ws.Client, want ws.EventType) *ws.Event {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case data := <-c.Send:
			var ev ws.Event
			require.NoError(t, json.Unmarshal(data, &ev))
			if ev.Type == want {
				return &ev
			}
		case <-deadline:
			t.Fatalf("no %s event received", want)
			return nil
		}
	}
}

func TestMessageFlowDeliversToSubscribers(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	channel, err := e.db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)
	require.NoError(t, e.db.JoinChannel(channel.ID, bob.ID))

	session := e.session(t, bob)
	e.hub.Subscribe(session, channel.ID)
	drainSession(session)

	msg, err := e.messages.AppendMessage(alice.ID, channel, "hi there", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, msg.Kind)

	ev := recvTyped(t, session, ws.TypeMessage)
	assert.Contains(t, string(ev.Data), "hi there")
	assert.Equal(t, alice.ID, ev.UserID)

	recent, err := e.db.RecentMessages(channel.ID, 50, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, msg.ID, recent[0].ID)
}

func TestMessageFlowMentionNotifiesOffline(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	channel, err := e.db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)
	require.NoError(t, e.db.JoinChannel(channel.ID, bob.ID))

	// Боб не в сети: упоминание должно дождаться его в хранилище
	_, err = e.messages.AppendMessage(alice.ID, channel, "ping @bob", "", "")
	require.NoError(t, err)

	list, err := e.db.ListUnreadNotifications(bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationMention, list[0].Kind)
}

func TestNonMemberCannotPost(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	carol := e.user(t, "carol")

	channel, err := e.db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)

	_, err = e.messages.AppendMessage(carol.ID, channel, "let me in", "", "")
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)
}

func TestMutedMemberCannotPost(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	channel, err := e.db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)
	require.NoError(t, e.db.JoinChannel(channel.ID, bob.ID))

	_, err = e.db.ImposeMute(bob.ID, channel.ID, "flood", alice.ID, nil)
	require.NoError(t, err)

	_, err = e.messages.AppendMessage(bob.ID, channel, "still here", "", "")
	assert.ErrorIs(t, err, apperrors.ErrMuted)

	recent, err := e.db.RecentMessages(channel.ID, 50, nil)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestBannedMemberStaysSilencedAfterRejoin(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	channel, err := e.db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)
	require.NoError(t, e.db.JoinChannel(channel.ID, bob.ID))

	_, err = e.db.ImposeBan(bob.ID, channel.ID, "spam", alice.ID, nil)
	require.NoError(t, err)

	// Бан выбил из участников
	_, err = e.messages.AppendMessage(bob.ID, channel, "hello?", "", "")
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)

	// Вернуться в список можно, но действующий бан всё равно запрещает писать
	require.NoError(t, e.db.JoinChannel(channel.ID, bob.ID))
	_, err = e.messages.AppendMessage(bob.ID, channel, "hello again", "", "")
	assert.ErrorIs(t, err, apperrors.ErrBanned)
}

func TestAppendMessageValidatesContent(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	channel, err := e.db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)

	_, err = e.messages.AppendMessage(alice.ID, channel, "", "", "")
	assert.ErrorIs(t, err, apperrors.ErrEmptyContent)

	_, err = e.messages.AppendMessage(alice.ID, channel, "   ", "", "")
	assert.ErrorIs(t, err, apperrors.ErrEmptyContent)

	long := strings.Repeat("a", models.MaxMessageLength+1)
	_, err = e.messages.AppendMessage(alice.ID, channel, long, "", "")
	assert.ErrorIs(t, err, apperrors.ErrContentTooLong)
}

func TestAppendMessageRejectsForgedKinds(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	channel, err := e.db.CreateChannel("general", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)

	// SYSTEM назначается только сервером, клиентский ввод отклоняется
	_, err = e.messages.AppendMessage(alice.ID, channel, "fake announcement", "SYSTEM", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidMessageKind)

	_, err = e.messages.AppendMessage(alice.ID, channel, "garbage", "BOGUS", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidMessageKind)

	msg, err := e.messages.AppendMessage(alice.ID, channel, "a picture", "IMAGE", "https://files.example.com/cat.png")
	require.NoError(t, err)
	assert.Equal(t, models.MessageImage, msg.Kind)

	// Отклонённые виды в лог не попали
	recent, err := e.db.RecentMessages(channel.ID, 50, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, msg.ID, recent[0].ID)
}
