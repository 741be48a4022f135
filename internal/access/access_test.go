package access

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thereayou/lazycord/internal/database"
	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

type fixture struct {
	db      *database.Database
	checker *Checker
	owner   *models.User
	member  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	d := database.NewDatabase(db)

	owner := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	member := &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, d.SaveUser(owner))
	require.NoError(t, d.SaveUser(member))

	return &fixture{db: d, checker: NewChecker(d), owner: owner, member: member}
}

func (f *fixture) channel(t *testing.T, kind models.ChannelKind) *models.Channel {
	t.Helper()
	channel, err := f.db.CreateChannel("room", "", kind, f.owner.ID)
	require.NoError(t, err)
	return channel
}

func TestPublicChannelReadableByAnyone(t *testing.T) {
	f := newFixture(t)
	channel := f.channel(t, models.ChannelPublic)

	// Чтение без членства разрешено, отправка нет
	assert.NoError(t, f.checker.CanRead(f.member.ID, channel))
	assert.ErrorIs(t, f.checker.CanPost(f.member.ID, channel), apperrors.ErrNotAMember)
}

func TestPrivateChannelRequiresMembership(t *testing.T) {
	f := newFixture(t)
	channel := f.channel(t, models.ChannelPrivate)

	assert.ErrorIs(t, f.checker.CanRead(f.member.ID, channel), apperrors.ErrNotAMember)

	require.NoError(t, f.db.JoinChannel(channel.ID, f.member.ID))
	assert.NoError(t, f.checker.CanRead(f.member.ID, channel))
	assert.NoError(t, f.checker.CanPost(f.member.ID, channel))
}

func TestBanDeniesReadAndPost(t *testing.T) {
	f := newFixture(t)
	channel := f.channel(t, models.ChannelPublic)
	require.NoError(t, f.db.JoinChannel(channel.ID, f.member.ID))

	_, err := f.db.ImposeBan(f.member.ID, channel.ID, "spam", f.owner.ID, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.checker.CanRead(f.member.ID, channel), apperrors.ErrBanned)
	// Бан снял членство, поэтому отправка падает ещё на проверке членства
	assert.ErrorIs(t, f.checker.CanPost(f.member.ID, channel), apperrors.ErrNotAMember)
}

func TestBanExpiresLazily(t *testing.T) {
	f := newFixture(t)
	channel := f.channel(t, models.ChannelPublic)

	expiry := time.Hour
	_, err := f.db.ImposeBan(f.member.ID, channel.ID, "cooldown", f.owner.ID, &expiry)
	require.NoError(t, err)

	assert.ErrorIs(t, f.checker.CanRead(f.member.ID, channel), apperrors.ErrBanned)

	// Сдвигаем часы за срок бана: запись никто не гасил, но силы она не имеет
	f.checker.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	assert.NoError(t, f.checker.CanRead(f.member.ID, channel))
}

func TestMuteDeniesPostOnly(t *testing.T) {
	f := newFixture(t)
	channel := f.channel(t, models.ChannelPublic)
	require.NoError(t, f.db.JoinChannel(channel.ID, f.member.ID))

	_, err := f.db.ImposeMute(f.member.ID, channel.ID, "flood", f.owner.ID, nil)
	require.NoError(t, err)

	assert.NoError(t, f.checker.CanRead(f.member.ID, channel))
	assert.ErrorIs(t, f.checker.CanPost(f.member.ID, channel), apperrors.ErrMuted)
}

func TestMuteExpiresLazily(t *testing.T) {
	f := newFixture(t)
	channel := f.channel(t, models.ChannelPublic)
	require.NoError(t, f.db.JoinChannel(channel.ID, f.member.ID))

	expiry := 30 * time.Minute
	_, err := f.db.ImposeMute(f.member.ID, channel.ID, "flood", f.owner.ID, &expiry)
	require.NoError(t, err)

	assert.ErrorIs(t, f.checker.CanPost(f.member.ID, channel), apperrors.ErrMuted)

	f.checker.WithClock(func() time.Time { return time.Now().Add(time.Hour) })
	assert.NoError(t, f.checker.CanPost(f.member.ID, channel))
}
