package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationFlow(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")

	// A friend request produces an unread row for the addressee.
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bob.User.ID), alice.Token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decodeBody(t, resp)["unread"])

	resp = doJSON(t, app, http.MethodGet, "/api/notifications/", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notifs := decodeBody(t, resp)["notifications"].([]any)
	require.Len(t, notifs, 1)
	first := notifs[0].(map[string]any)
	assert.Contains(t, first["message"], "sent you a friend request")
	assert.Equal(t, false, first["read"])

	resp = doJSON(t, app, http.MethodPost, "/api/notifications/read-all", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decodeBody(t, resp)["marked"])

	resp = doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decodeBody(t, resp)["unread"])

	// Repeat mark-read touches nothing.
	resp = doJSON(t, app, http.MethodPost, "/api/notifications/read-all", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decodeBody(t, resp)["marked"])
}

func TestNotificationsAreScopedToRecipient(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")
	bob := signupUser(t, srv, "bob")
	carol := signupUser(t, srv, "carol")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bob.User.ID), alice.Token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/notifications/", carol.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody(t, resp)["notifications"])
}
