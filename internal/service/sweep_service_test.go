package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCooldown = 15 * time.Minute

func TestSweepSkipsUsersStillInsideCooldown(t *testing.T) {
	env := newTestEnv(t)
	sweep := env.sweepService(testCooldown)
	saver := env.createUser(t, "alice")
	watcher := env.createUser(t, "bob")
	env.makeFriends(t, saver, watcher)
	ctx := context.Background()

	require.NoError(t, env.users.MarkPendingNotification(ctx, saver.ID, time.Now().Add(-5*time.Minute)))

	processed, err := sweep.RunAggregationSweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)

	reloaded, err := env.users.GetByID(ctx, saver.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.PendingNotification, "user inside the cooldown stays pending")
}

func TestSweepNotifiesWatchersAndClearsFlag(t *testing.T) {
	env := newTestEnv(t)
	sweep := env.sweepService(testCooldown)
	saver := env.createUser(t, "alice")
	watcher := env.createUser(t, "bob")
	env.makeFriends(t, saver, watcher)
	ctx := context.Background()

	require.NoError(t, env.users.MarkPendingNotification(ctx, saver.ID, time.Now().Add(-20*time.Minute)))

	processed, err := sweep.RunAggregationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	notifs, err := env.notifs.ListForUser(ctx, watcher.ID, 10)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "alice added new availability", notifs[0].Message)

	reloaded, err := env.users.GetByID(ctx, saver.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.PendingNotification)
	assert.Nil(t, reloaded.PendingNotificationMarkedAt)
}

func TestSweepIsIdempotentAcrossRuns(t *testing.T) {
	env := newTestEnv(t)
	sweep := env.sweepService(testCooldown)
	saver := env.createUser(t, "alice")
	watcher := env.createUser(t, "bob")
	env.makeFriends(t, saver, watcher)
	ctx := context.Background()

	require.NoError(t, env.users.MarkPendingNotification(ctx, saver.ID, time.Now().Add(-20*time.Minute)))

	for range 3 {
		_, err := sweep.RunAggregationSweep(ctx)
		require.NoError(t, err)
	}

	notifs, err := env.notifs.ListForUser(ctx, watcher.ID, 10)
	require.NoError(t, err)
	assert.Len(t, notifs, 1, "one pending episode produces exactly one notification")
}

func TestSweepSkipsUserWhoSavedAgainDuringSweep(t *testing.T) {
	env := newTestEnv(t)
	sweep := env.sweepService(testCooldown)
	saver := env.createUser(t, "alice")
	watcher := env.createUser(t, "bob")
	env.makeFriends(t, saver, watcher)
	ctx := context.Background()

	stale := time.Now().Add(-20 * time.Minute)
	require.NoError(t, env.users.MarkPendingNotification(ctx, saver.ID, stale))

	// The sweep read this user with the stale mark, then a fresh save reset
	// the clock before the clear ran.
	staleCopy, err := env.users.GetByID(ctx, saver.ID)
	require.NoError(t, err)
	fresh := time.Now()
	require.NoError(t, env.users.MarkPendingNotification(ctx, saver.ID, fresh))

	deliveries, cleared, err := sweep.sweepOne(ctx, staleCopy)
	require.NoError(t, err)
	assert.False(t, cleared, "a raced clear must report the lost race")
	assert.Nil(t, deliveries, "a raced clear must skip without notifying")

	reloaded, err := env.users.GetByID(ctx, saver.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.PendingNotification, "the fresh mark must survive the lost race")

	notifs, err := env.notifs.ListForUser(ctx, watcher.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestSweepRequiresIntactFriendship(t *testing.T) {
	env := newTestEnv(t)
	sweep := env.sweepService(testCooldown)
	saver := env.createUser(t, "alice")
	watcher := env.createUser(t, "bob")
	ctx := context.Background()

	// Watch subscription exists but the friendship was dissolved: the stale
	// entry must not leak a ping.
	require.NoError(t, env.friends.Subscribe(ctx, watcher.ID, saver.ID))
	require.NoError(t, env.users.MarkPendingNotification(ctx, saver.ID, time.Now().Add(-20*time.Minute)))

	// The episode was consumed even though nobody was eligible: the user
	// counts as processed and their pending flag is gone.
	processed, err := sweep.RunAggregationSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	notifs, err := env.notifs.ListForUser(ctx, watcher.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	reloaded, err := env.users.GetByID(ctx, saver.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.PendingNotification)
}

func TestSweepOnlyNotifiesSubscribedWatchers(t *testing.T) {
	env := newTestEnv(t)
	sweep := env.sweepService(testCooldown)
	saver := env.createUser(t, "alice")
	watching := env.createUser(t, "bob")
	notWatching := env.createUser(t, "carol")
	env.makeFriends(t, saver, watching)
	ctx := context.Background()

	// carol is a friend but never subscribed.
	require.NoError(t, env.friends.CreateEdge(ctx, saver.ID, notWatching.ID))

	require.NoError(t, env.users.MarkPendingNotification(ctx, saver.ID, time.Now().Add(-20*time.Minute)))
	_, err := sweep.RunAggregationSweep(ctx)
	require.NoError(t, err)

	got, err := env.notifs.ListForUser(ctx, watching.ID, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = env.notifs.ListForUser(ctx, notWatching.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWeeklyRemindersMatchDayAndPreference(t *testing.T) {
	env := newTestEnv(t)
	sweep := env.sweepService(testCooldown)
	ctx := context.Background()

	now := time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC) // a Wednesday
	sweep.now = func() time.Time { return now }

	optedIn := env.createUser(t, "alice")
	optedIn.ReminderDays = []string{"wednesday"}
	optedIn.RemindersEnabled = true
	require.NoError(t, env.users.Update(ctx, optedIn))

	otherDay := env.createUser(t, "bob")
	otherDay.ReminderDays = []string{"friday"}
	otherDay.RemindersEnabled = true
	require.NoError(t, env.users.Update(ctx, otherDay))

	disabled := env.createUser(t, "carol")
	disabled.ReminderDays = []string{"wednesday"}
	disabled.RemindersEnabled = false
	require.NoError(t, env.users.Update(ctx, disabled))

	sent, err := sweep.RunWeeklyReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Equal(t, 1, env.sms.count())
	assert.Contains(t, env.sms.sent[0], "Hi alice!")
}
