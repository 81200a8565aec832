package service

import (
	"context"
	"testing"

	"gatherly/internal/config"
	"gatherly/internal/middleware"
	"gatherly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userService(env *testEnv) *UserService {
	middleware.InitMiddleware(&config.Config{JWTSecret: "test-secret-for-service-tests"})
	return NewUserService(env.users, env.devices, env.friendService())
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := userService(env)
	ctx := context.Background()

	result, err := svc.Register(ctx, "Alice Smith", "Alice@Example.com", "(555) 123-4567", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, "+15551234567", result.User.PhoneNormalized)
	assert.True(t, result.User.RemindersEnabled)
	assert.Equal(t, models.DefaultReminderDays, result.User.ReminderDays)

	login, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := userService(env)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@example.com", "5551234567", "hunter2hunter2")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "Alice", "a@example.com", "5551234567", "short")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "Alice", "a@example.com", "123", "hunter2hunter2")
	assert.Error(t, err, "unparseable phone")
}

func TestRegisterAutoConnectsMutualContacts(t *testing.T) {
	env := newTestEnv(t)
	svc := userService(env)
	ctx := context.Background()

	existing, err := svc.Register(ctx, "Alice", "alice.ac@example.com", "5550100001", "hunter2hunter2")
	require.NoError(t, err)

	// Alice has the newcomer's number; the newcomer imports Alice's right
	// after signup, then mutual detection runs on the next registration...
	// in practice the import happens via onboarding before AutoConnect is
	// re-invoked, so seed both sides up front here.
	require.NoError(t, env.users.AddContact(ctx, &models.Contact{
		OwnerID: existing.User.ID, Name: "Bob", Phone: "5550100002", PhoneNormalized: "+15550100002",
	}))

	bob, err := svc.Register(ctx, "Bob", "bob.ac@example.com", "5550100002", "hunter2hunter2")
	require.NoError(t, err)
	require.NoError(t, env.users.AddContact(ctx, &models.Contact{
		OwnerID: bob.User.ID, Name: "Alice", Phone: "5550100001", PhoneNormalized: "+15550100001",
	}))

	connected, err := env.friendService().AutoConnect(ctx, bob.User)
	require.NoError(t, err)
	assert.Equal(t, 1, connected)

	friends, err := env.friends.AreFriends(ctx, existing.User.ID, bob.User.ID)
	require.NoError(t, err)
	assert.True(t, friends)
}

func TestImportAndResolveContacts(t *testing.T) {
	env := newTestEnv(t)
	svc := userService(env)
	ctx := context.Background()

	owner := env.createUser(t, "alice")
	member := env.createUser(t, "bob")

	imported, err := svc.ImportContacts(ctx, owner.ID, []ContactEntry{
		{Name: "Bob", Phone: member.Phone},
		{Name: "Bad Number", Phone: "12"},
		{Name: "Offline Pal", Phone: "555-999-0000"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, imported, "unparseable numbers are skipped")

	// Resolution is by normalized phone; createUser's raw phone normalizes
	// differently, so point the contact at the member's canonical number.
	_, err = svc.ImportContacts(ctx, owner.ID, []ContactEntry{
		{Name: "Bob", Phone: member.PhoneNormalized},
	})
	require.NoError(t, err)

	resolved, err := svc.ListContacts(ctx, owner.ID)
	require.NoError(t, err)

	var matched int
	for _, rc := range resolved {
		if rc.User != nil {
			matched++
			assert.Equal(t, member.ID, rc.User.ID)
		}
	}
	assert.Equal(t, 1, matched)
}

func TestUpdateReminderSettings(t *testing.T) {
	env := newTestEnv(t)
	svc := userService(env)
	ctx := context.Background()
	user := env.createUser(t, "alice")

	updated, err := svc.UpdateReminderSettings(ctx, user.ID, true, []string{"Sunday", "wednesday"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sunday", "wednesday"}, updated.ReminderDays)

	_, err = svc.UpdateReminderSettings(ctx, user.ID, true, []string{"caturday"})
	assert.Error(t, err)
}

func TestDeviceRegistration(t *testing.T) {
	env := newTestEnv(t)
	svc := userService(env)
	ctx := context.Background()
	user := env.createUser(t, "alice")

	require.NoError(t, svc.RegisterDevice(ctx, user.ID, "https://push.example/ep1"))
	require.NoError(t, svc.RegisterDevice(ctx, user.ID, "https://push.example/ep1"), "re-register is idempotent")

	devices, err := env.devices.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, devices, 1)

	require.NoError(t, svc.RemoveDevice(ctx, user.ID, "https://push.example/ep1"))
	devices, err = env.devices.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, devices)

	assert.Error(t, svc.RegisterDevice(ctx, user.ID, "  "))
}
