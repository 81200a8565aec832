package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"gatherly/internal/config"
	"gatherly/internal/database"
	"gatherly/internal/middleware"
	"gatherly/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

var testUserSeq atomic.Uint64

// newTestServer builds a Server on a fresh in-memory database with the full
// route table mounted. Redis is absent, so realtime delivery is disabled and
// rate limits fall through.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	cfg := &config.Config{
		Port:                        "0",
		Env:                         "test",
		JWTSecret:                   "test-secret-for-handler-tests",
		AppBaseURL:                  "http://localhost:5001",
		NotificationCooldownMinutes: 15,
		PushTimeoutSeconds:          1,
	}
	middleware.InitMiddleware(cfg)

	db, err := database.ConnectTest()
	require.NoError(t, err)

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

// signupUser registers a user through the service layer and returns the auth result.
func signupUser(t *testing.T, srv *Server, name string) *service.AuthResult {
	t.Helper()
	n := testUserSeq.Add(1)
	result, err := srv.userService.Register(
		t.Context(),
		name,
		fmt.Sprintf("%s%d@example.com", name, n),
		fmt.Sprintf("+1555%07d", n),
		"a-long-enough-password",
	)
	require.NoError(t, err)
	return result
}

// doJSON performs a request against the test app with an optional bearer token
// and JSON body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decodeBody decodes a JSON response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
