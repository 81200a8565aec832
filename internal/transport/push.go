// Package transport holds the outbound push and SMS delivery contracts. Both
// channels are best-effort: a failed or timed-out send is logged and counted,
// never surfaced to the caller of the triggering domain action.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// PushResult is the outcome of one endpoint delivery attempt. Permanent
// failures (HTTP 404/410) mean the endpoint is dead and should be pruned.
type PushResult struct {
	Endpoint  string
	Delivered bool
	Permanent bool
}

// PushSender delivers a payload to a user's registered push endpoints.
type PushSender interface {
	Send(ctx context.Context, endpoints []string, title, body, url string) []PushResult
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// HTTPPusher posts the notification payload to each registered endpoint with
// a bounded per-attempt timeout.
type HTTPPusher struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewHTTPPusher creates a push sender with the given per-attempt timeout.
func NewHTTPPusher(timeout time.Duration, logger *slog.Logger) *HTTPPusher {
	return &HTTPPusher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// Send attempts delivery to every endpoint and reports per-endpoint results.
// Timeouts and transport errors are treated as failed deliveries.
func (p *HTTPPusher) Send(ctx context.Context, endpoints []string, title, body, url string) []PushResult {
	payload, err := json.Marshal(pushPayload{Title: title, Body: body, URL: url})
	if err != nil {
		p.logger.ErrorContext(ctx, "push payload marshal failed", "error", err)
		return nil
	}

	results := make([]PushResult, 0, len(endpoints))
	for _, endpoint := range endpoints {
		results = append(results, p.sendOne(ctx, endpoint, payload))
	}
	return results
}

func (p *HTTPPusher) sendOne(ctx context.Context, endpoint string, payload []byte) PushResult {
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return PushResult{Endpoint: endpoint}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.WarnContext(ctx, "push delivery failed", "endpoint", endpoint, "error", err)
		return PushResult{Endpoint: endpoint}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return PushResult{Endpoint: endpoint, Delivered: true}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		p.logger.InfoContext(ctx, "push endpoint gone, will prune", "endpoint", endpoint, "status", resp.StatusCode)
		return PushResult{Endpoint: endpoint, Permanent: true}
	default:
		p.logger.WarnContext(ctx, "push delivery rejected", "endpoint", endpoint, "status", resp.StatusCode)
		return PushResult{Endpoint: endpoint}
	}
}

// LogPusher logs send attempts instead of delivering. Used in development and
// as the default when no push infrastructure is configured.
type LogPusher struct {
	logger *slog.Logger
}

// NewLogPusher returns a pusher that reports every endpoint as delivered.
func NewLogPusher(logger *slog.Logger) *LogPusher {
	return &LogPusher{logger: logger}
}

// Send logs the payload and reports success for every endpoint.
func (p *LogPusher) Send(ctx context.Context, endpoints []string, title, body, url string) []PushResult {
	p.logger.InfoContext(ctx, "push send (mock)", "endpoints", len(endpoints), "title", title, "body", body)
	results := make([]PushResult, 0, len(endpoints))
	for _, e := range endpoints {
		results = append(results, PushResult{Endpoint: e, Delivered: true})
	}
	return results
}
