package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"gatherly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upcomingWeek returns the week start and two slot dates in the near future,
// so handler tests are not sensitive to the wall clock.
func upcomingWeek() (weekStart, day1, day2 string) {
	base := time.Now().AddDate(0, 0, 7)
	return base.Format(models.SlotDateLayout),
		base.AddDate(0, 0, 1).Format(models.SlotDateLayout),
		base.AddDate(0, 0, 2).Format(models.SlotDateLayout)
}

func TestSaveAndGetAvailability(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")
	weekStart, day1, day2 := upcomingWeek()

	resp := doJSON(t, app, http.MethodPost, "/api/availability/", alice.Token, map[string]any{
		"week_start": weekStart,
		"slots": []map[string]string{
			{"date": day1, "period": "morning"},
			{"date": day2, "period": "evening"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["has_new"])

	resp = doJSON(t, app, http.MethodGet, "/api/availability/?week_start="+weekStart, alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	slots := body["slots"].([]any)
	assert.Len(t, slots, 2)
}

func TestGetAvailabilityEmptyWeek(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")
	weekStart, _, _ := upcomingWeek()

	resp := doJSON(t, app, http.MethodGet, "/api/availability/?week_start="+weekStart, alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Empty(t, body["slots"])

	resp = doJSON(t, app, http.MethodGet, "/api/availability/", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSaveAvailabilityRejectsBadSlot(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")
	weekStart, day1, _ := upcomingWeek()

	resp := doJSON(t, app, http.MethodPost, "/api/availability/", alice.Token, map[string]any{
		"week_start": weekStart,
		"slots": []map[string]string{
			{"date": day1, "period": "midnight"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestFriendAvailabilityRequiresOwnActivity(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")
	befriend(t, app, alice.Token, bob.Token, bob.User.ID)

	// Alice has not shared anything recently, so the view is gated.
	resp := doJSON(t, app, http.MethodGet, "/api/availability/friends", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	weekStart, day1, _ := upcomingWeek()
	resp = doJSON(t, app, http.MethodPost, "/api/availability/", alice.Token, map[string]any{
		"week_start": weekStart,
		"slots":      []map[string]string{{"date": day1, "period": "morning"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/availability/friends", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	// Bob is listed but has nothing shared.
	friends := body["friends"].([]any)
	require.Len(t, friends, 1)
}

func TestNudgeEndpoint(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")
	carol := signupUser(t, srv, "carol")
	befriend(t, app, alice.Token, bob.Token, bob.User.ID)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/friends/%d/nudge", bob.User.ID), alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Bob received the nudge as an in-app notification, newest first.
	resp = doJSON(t, app, http.MethodGet, "/api/notifications/", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notifs := decodeBody(t, resp)["notifications"].([]any)
	require.NotEmpty(t, notifs)
	newest := notifs[0].(map[string]any)
	assert.Contains(t, newest["message"], "nudged you")

	// Nudging a non-friend is rejected.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/friends/%d/nudge", carol.User.ID), alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
