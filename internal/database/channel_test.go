package database

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/lazycord/internal/models"
	"github.com/thereayou/lazycord/pkg/apperrors"
)

func TestCreateChannelMakesCreatorOwner(t *testing.T) {
	d := newTestDB(t)
	owner := newTestUser(t, d, "alice")

	channel, err := d.CreateChannel("general", "main channel", models.ChannelPublic, owner.ID)
	require.NoError(t, err)
	require.NotEqual(t, "", channel.ID.String())

	m, err := d.GetActiveMembership(channel.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, m.Role)
}

func TestGetChannelNotFound(t *testing.T) {
	d := newTestDB(t)

	_, err := d.GetChannel("3e2c6f30-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperrors.ErrChannelNotFound)
}

func TestGetUserChannelsExcludesLeft(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")

	stay, err := d.CreateChannel("stay", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)
	left, err := d.CreateChannel("left", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)

	require.NoError(t, d.JoinChannel(stay.ID, bob.ID))
	require.NoError(t, d.JoinChannel(left.ID, bob.ID))
	require.NoError(t, d.LeaveChannel(left, bob.ID))

	channels, err := d.GetUserChannels(bob.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, stay.ID, channels[0].ID)
}

func TestGetOrCreateDirectChannelIdempotent(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")

	first, err := d.GetOrCreateDirectChannel(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelDirect, first.Kind)

	// Порядок аргументов не важен: ключ пары отсортирован
	second, err := d.GetOrCreateDirectChannel(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	members, err := d.ListActiveMembers(first.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, m := range members {
		assert.Equal(t, models.RoleMember, m.Role)
	}
}

func TestGetOrCreateDirectChannelConcurrent(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")
	bob := newTestUser(t, d, "bob")

	const workers = 8

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	// Проигравший гонку должен вернуть канал победителя, а не ошибку
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			channel, err := d.GetOrCreateDirectChannel(alice.ID, bob.ID)
			errs[i] = err
			if err == nil {
				ids[i] = channel.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	members, err := d.ListActiveMembers(ids[0])
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestDeleteChannelCascades(t *testing.T) {
	d := newTestDB(t)
	alice := newTestUser(t, d, "alice")

	channel, err := d.CreateChannel("doomed", "", models.ChannelPublic, alice.ID)
	require.NoError(t, err)

	msg := &models.Message{ChannelID: channel.ID, SenderID: alice.ID, Content: "bye", Kind: models.MessageText}
	require.NoError(t, d.SaveMessage(msg))

	require.NoError(t, d.DeleteChannel(channel.ID.String()))

	_, err = d.GetChannel(channel.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrChannelNotFound)
	_, err = d.GetMessage(msg.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}
