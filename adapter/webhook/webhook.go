// Package webhook delivers ingestion completion events over HTTP POST.
//
// Each delivery carries the ingest id in a header so receivers can drop
// redeliveries left over from a retried publish. Transient failures back
// off exponentially; 4xx responses abort the delivery.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vitalsink/vitalsink/adapter"
	"github.com/vitalsink/vitalsink/iox"
)

// Headers attached to every delivery. HeaderIngestID is the receiver's
// idempotency key: two deliveries with the same value are the same event.
const (
	HeaderEvent    = "X-Vitalsink-Event"
	HeaderIngestID = "X-Vitalsink-Ingest-Id"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the standard redelivery budget.
const DefaultRetries = 3

// initialBackoff seeds the exponential wait between delivery attempts.
const initialBackoff = 500 * time.Millisecond

// Config configures the webhook adapter.
type Config struct {
	// URL is the HTTP endpoint to POST to (required).
	URL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// Retries is the number of redelivery attempts after the first failure;
	// zero means a single attempt.
	Retries int
}

// Adapter publishes ingestion completion events via HTTP POST.
type Adapter struct {
	config Config
	client *http.Client
}

// New creates a webhook adapter. Returns an error if the URL is empty.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Publish posts the event as JSON. Network errors and 5xx responses are
// redelivered up to Retries times with exponential backoff; 4xx responses
// fail immediately since resending the same body cannot change the verdict.
func (a *Adapter) Publish(ctx context.Context, event *adapter.IngestionCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 0; attempt <= a.config.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook: canceled while waiting to redeliver: %w", ctx.Err())
			case <-time.After(bo.NextBackOff()):
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("webhook: context canceled: %w", err)
		}

		lastErr = a.deliver(ctx, event, body)
		if lastErr == nil {
			return nil
		}

		var status *StatusError
		if errors.As(lastErr, &status) && !status.Retriable() {
			return fmt.Errorf("webhook: non-retriable delivery: %w", lastErr)
		}
	}

	return fmt.Errorf("webhook: gave up after %d attempts: %w", a.config.Retries+1, lastErr)
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retriable reports whether redelivering the same body can still succeed.
// Server-side failures can clear up; client errors cannot.
func (e *StatusError) Retriable() bool {
	return e.Code >= 500
}

// deliver performs one HTTP POST and returns nil on any 2xx.
func (a *Adapter) deliver(ctx context.Context, event *adapter.IngestionCompletedEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, event.EventType)
	req.Header.Set(HeaderIngestID, event.IngestID)
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}

	return nil
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
