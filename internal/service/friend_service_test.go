package service

import (
	"context"
	"testing"

	"gatherly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendFriendRequest(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, request.Status)

	// Addressee gets the request notification, sender a confirmation row.
	bobNotifs, err := env.notifs.ListForUser(ctx, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, bobNotifs, 1)
	assert.Contains(t, bobNotifs[0].Message, "sent you a friend request")

	aliceNotifs, err := env.notifs.ListForUser(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, aliceNotifs, 1)
	assert.Contains(t, aliceNotifs[0].Message, "Friend request sent to bob")
}

func TestSendFriendRequestRejectsDuplicatesAndSelf(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	_, err := svc.SendFriendRequest(ctx, alice.ID, alice.ID)
	assert.Error(t, err)

	_, err = svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	assert.Error(t, err, "duplicate request")

	_, err = svc.SendFriendRequest(ctx, bob.ID, alice.ID)
	assert.Error(t, err, "reverse of a pending request")
}

func TestAcceptFriendRequestCreatesEdgeAndMutualWatch(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.AcceptFriendRequest(ctx, bob.ID, request.ID)
	require.NoError(t, err)

	friends, err := env.friends.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, friends)

	aliceWatches, err := env.friends.ListWatchedIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Contains(t, aliceWatches, bob.ID)

	bobWatches, err := env.friends.ListWatchedIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Contains(t, bobWatches, alice.ID)

	aliceNotifs, err := env.notifs.ListForUser(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, aliceNotifs)
	assert.Contains(t, aliceNotifs[0].Message, "accepted your friend request")
}

func TestAcceptFriendRequestAuthorization(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Only the addressee may accept.
	_, err = svc.AcceptFriendRequest(ctx, alice.ID, request.ID)
	assert.Error(t, err)

	_, err = svc.AcceptFriendRequest(ctx, bob.ID, request.ID)
	require.NoError(t, err)

	// Terminal: a second accept fails.
	_, err = svc.AcceptFriendRequest(ctx, bob.ID, request.ID)
	assert.Error(t, err)
}

func TestRejectFriendRequestIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	request, err := svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	rejected, err := svc.RejectFriendRequest(ctx, bob.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestRejected, rejected.Status)

	_, err = svc.AcceptFriendRequest(ctx, bob.ID, request.ID)
	assert.Error(t, err, "rejected is terminal")

	friends, err := env.friends.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, friends)
}

func TestRemoveFriendDropsEdgeAndSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.makeFriends(t, alice, bob)
	ctx := context.Background()

	require.NoError(t, svc.RemoveFriend(ctx, alice.ID, bob.ID))

	friends, err := env.friends.AreFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, friends)

	watched, err := env.friends.ListWatchedIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, watched)
	watched, err = env.friends.ListWatchedIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, watched)
}

func TestWatchRequiresFriendship(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	err := svc.Watch(ctx, alice.ID, bob.ID)
	assert.Error(t, err)

	env.makeFriends(t, alice, bob)
	require.NoError(t, svc.Watch(ctx, alice.ID, bob.ID))

	// Watching twice is idempotent.
	require.NoError(t, svc.Watch(ctx, alice.ID, bob.ID))
	watched, err := env.friends.ListWatchedIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, watched, 1)
}

func TestAutoConnectRequiresMutualContacts(t *testing.T) {
	env := newTestEnv(t)
	svc := env.friendService()
	existing := env.createUser(t, "alice")
	newcomer := env.createUser(t, "bob")
	ctx := context.Background()

	// alice has bob's number, but bob does not have alice's: no connection.
	require.NoError(t, env.users.AddContact(ctx, &models.Contact{
		OwnerID: existing.ID, Name: "Bob", Phone: newcomer.Phone, PhoneNormalized: newcomer.PhoneNormalized,
	}))
	connected, err := svc.AutoConnect(ctx, newcomer)
	require.NoError(t, err)
	assert.Zero(t, connected)

	// Once bob also holds alice's number the match is mutual.
	require.NoError(t, env.users.AddContact(ctx, &models.Contact{
		OwnerID: newcomer.ID, Name: "Alice", Phone: existing.Phone, PhoneNormalized: existing.PhoneNormalized,
	}))
	connected, err = svc.AutoConnect(ctx, newcomer)
	require.NoError(t, err)
	assert.Equal(t, 1, connected)

	friends, err := env.friends.AreFriends(ctx, existing.ID, newcomer.ID)
	require.NoError(t, err)
	assert.True(t, friends)

	watched, err := env.friends.ListWatchedIDs(ctx, newcomer.ID)
	require.NoError(t, err)
	assert.Contains(t, watched, existing.ID)
}
