// Package service contains adapters for the core's external collaborators.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/pkg/circuitbreaker"
	"github.com/douglasrmachado/Trilhas-App-sub001/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG SINK
// ══════════════════════════════════════════════════════════════════════════════

// LogSink writes notifications to the structured log. The default sink for
// deployments without a delivery channel configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Notify implements notification.Sink.
func (s *LogSink) Notify(ctx context.Context, userID string, kind notification.EventKind, title, body string) {
	s.logger.Info("notification",
		"user_id", userID,
		"kind", kind,
		"title", title,
		"body", body,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK SINK
// ══════════════════════════════════════════════════════════════════════════════

// WebhookSink POSTs notifications to an external delivery endpoint. Each
// Notify runs on its own goroutine with retries; delivery failures are
// logged and dropped, never surfaced to the calling command.
type WebhookSink struct {
	url     string
	client  *http.Client
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	logger  *slog.Logger
}

// NewWebhookSink creates a webhook-backed sink.
func NewWebhookSink(url string, logger *slog.Logger) *WebhookSink {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger
	return &WebhookSink{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		retrier: retry.WebhookRetrier(),
		breaker: circuitbreaker.WebhookBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
		timeout: 30 * time.Second,
		logger:  logger,
	}
}

type webhookPayload struct {
	UserID string                 `json:"user_id"`
	Kind   notification.EventKind `json:"kind"`
	Title  string                 `json:"title"`
	Body   string                 `json:"body"`
	SentAt time.Time              `json:"sent_at"`
}

// Notify implements notification.Sink. The caller's context only gates the
// enqueue; delivery runs against a detached deadline so an already-finished
// request doesn't cancel its own notification.
func (s *WebhookSink) Notify(ctx context.Context, userID string, kind notification.EventKind, title, body string) {
	payload := webhookPayload{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		SentAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := s.retrier.Do(ctx, func(ctx context.Context) error {
			return s.breaker.Execute(ctx, func(ctx context.Context) error {
				return s.deliver(ctx, payload)
			})
		})
		if err != nil {
			s.logger.Warn("notification delivery failed",
				"user_id", userID,
				"kind", kind,
				"error", err,
			)
		}
	}()
}

func (s *WebhookSink) deliver(ctx context.Context, payload webhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return retry.Retryable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Permanent(fmt.Errorf("webhook rejected notification: %s", resp.Status))
	default:
		return retry.Retryable(fmt.Errorf("webhook returned %s", resp.Status))
	}
}
