package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHTTPPusherDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewHTTPPusher(2*time.Second, testLogger())
	results := p.Send(context.Background(), []string{srv.URL}, "Alice", "Added new availability", "")

	assert.Len(t, results, 1)
	assert.True(t, results[0].Delivered)
	assert.False(t, results[0].Permanent)
}

func TestHTTPPusherGoneEndpointIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	p := NewHTTPPusher(2*time.Second, testLogger())
	results := p.Send(context.Background(), []string{srv.URL}, "Alice", "Added new availability", "")

	assert.Len(t, results, 1)
	assert.False(t, results[0].Delivered)
	assert.True(t, results[0].Permanent)
}

func TestHTTPPusherServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPPusher(2*time.Second, testLogger())
	results := p.Send(context.Background(), []string{srv.URL}, "t", "b", "")

	assert.False(t, results[0].Delivered)
	assert.False(t, results[0].Permanent)
}

func TestHTTPPusherTimeoutIsFailedDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewHTTPPusher(50*time.Millisecond, testLogger())
	results := p.Send(context.Background(), []string{srv.URL}, "t", "b", "")

	assert.False(t, results[0].Delivered)
	assert.False(t, results[0].Permanent)
}

func TestMockSMSSender(t *testing.T) {
	s := NewMockSMSSender(testLogger())
	assert.Equal(t, SMSMocked, s.Send(context.Background(), "+15551234567", "hello"))
}

func TestTwilioSenderRequiresCredentials(t *testing.T) {
	assert.Nil(t, NewTwilioSender("", "", "", testLogger()))
}
