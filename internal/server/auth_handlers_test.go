package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"phone":    "(555) 123-4567",
		"password": "a-long-enough-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", user["email"])

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "a-long-enough-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	_, app := newTestServer(t)

	payload := map[string]string{
		"name":     "Alice",
		"email":    "dupe@example.com",
		"phone":    "5551234567",
		"password": "a-long-enough-password",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	payload["phone"] = "5557654321"
	resp = doJSON(t, app, http.MethodPost, "/api/auth/signup", "", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Alice",
		"email":    "weak@example.com",
		"phone":    "5551234567",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestLoginWrongPassword(t *testing.T) {
	srv, app := newTestServer(t)
	alice := signupUser(t, srv, "alice")

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    alice.User.Email,
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}
