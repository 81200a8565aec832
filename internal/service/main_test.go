package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
	"gatherly/internal/notifications"
	"gatherly/internal/repository"
	"gatherly/internal/transport"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pusherStub records push attempts and returns configurable results.
type pusherStub struct {
	mu        sync.Mutex
	calls     int
	endpoints []string
	failAll   bool
	permanent bool
}

func (p *pusherStub) Send(_ context.Context, endpoints []string, _, _, _ string) []transport.PushResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.endpoints = append(p.endpoints, endpoints...)
	results := make([]transport.PushResult, len(endpoints))
	for i, e := range endpoints {
		results[i] = transport.PushResult{
			Endpoint:  e,
			Delivered: !p.failAll,
			Permanent: p.failAll && p.permanent,
		}
	}
	return results
}

// smsStub records sent messages.
type smsStub struct {
	mu   sync.Mutex
	sent []string
}

func (s *smsStub) Send(_ context.Context, phone, message string) transport.SMSStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, phone+": "+message)
	return transport.SMSMocked
}

func (s *smsStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testEnv struct {
	db         *gorm.DB
	users      repository.UserRepository
	avail      repository.AvailabilityRepository
	friends    repository.FriendRepository
	notifs     repository.NotificationRepository
	hangouts   repository.HangoutRepository
	devices    repository.DeviceRepository
	pusher     *pusherStub
	sms        *smsStub
	dispatcher *Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		avail:    repository.NewAvailabilityRepository(db),
		friends:  repository.NewFriendRepository(db),
		notifs:   repository.NewNotificationRepository(db),
		hangouts: repository.NewHangoutRepository(db),
		devices:  repository.NewDeviceRepository(db),
		pusher:   &pusherStub{},
		sms:      &smsStub{},
	}
	env.dispatcher = NewDispatcher(env.devices, env.pusher, env.sms, notifications.NewNotifier(nil))
	return env
}

var userSeq int

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	userSeq++
	user := &models.User{
		Name:            name,
		Email:           fmt.Sprintf("%s%d@example.com", name, userSeq),
		Phone:           fmt.Sprintf("555-01%02d", userSeq%100),
		PhoneNormalized: fmt.Sprintf("+1555%07d", userSeq),
		Password:        "not-a-real-hash",
		ReminderDays:    []string{},
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) makeFriends(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.friends.CreateEdge(ctx, a.ID, b.ID))
	require.NoError(t, e.friends.Subscribe(ctx, a.ID, b.ID))
	require.NoError(t, e.friends.Subscribe(ctx, b.ID, a.ID))
}

func (e *testEnv) availabilityService() *AvailabilityService {
	return NewAvailabilityService(e.db, e.users, e.avail, e.friends, e.notifs, e.dispatcher)
}

func (e *testEnv) sweepService(cooldown time.Duration) *SweepService {
	return NewSweepService(e.db, e.users, e.friends, e.dispatcher, e.sms, cooldown, "http://localhost:5001")
}

func (e *testEnv) friendService() *FriendService {
	return NewFriendService(e.db, e.friends, e.users, e.dispatcher)
}

func (e *testEnv) hangoutService() *HangoutService {
	return NewHangoutService(e.db, e.hangouts, e.friends, e.users, e.dispatcher)
}
