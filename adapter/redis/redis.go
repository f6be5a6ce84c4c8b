// Package redis broadcasts ingestion completion events over Redis pub/sub.
//
// Every event goes to the configured channel. Consumers that only care
// about degraded ingestions can instead subscribe to the status-suffixed
// channel (<channel>:partial, <channel>:failed), which carries the same
// payload for every non-completed status.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vitalsink/vitalsink/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "vitalsink:ingestion_completed"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the standard republish budget.
const DefaultRetries = 3

// initialBackoff seeds the exponential wait between publish attempts.
const initialBackoff = 500 * time.Millisecond

// Config configures the Redis pub/sub adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: vitalsink:ingestion_completed).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of republish attempts after the first failure;
	// zero means a single attempt.
	Retries int
}

// Adapter publishes ingestion completion events via Redis PUBLISH.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis pub/sub adapter.
// Returns an error if the URL is empty or malformed.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}
	opts.ClientName = "vitalsink-adapter"

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Publish sends the event as a JSON PUBLISH. Degraded ingestions fan out to
// the status-suffixed channel as well. Connection failures republish with
// exponential backoff up to the retry budget.
func (a *Adapter) Publish(ctx context.Context, event *adapter.IngestionCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	channels := []string{a.config.Channel}
	if event.Status != "completed" {
		channels = append(channels, a.config.Channel+":"+event.Status)
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
				return fmt.Errorf("redis: canceled while waiting to republish: %w", ctx.Err())
			case <-time.After(bo.NextBackOff()):
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		lastErr = a.fanout(ctx, channels, body)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: gave up after %d attempts: %w", a.config.Retries+1, lastErr)
}

// fanout publishes the body to every channel inside one timeout window.
// A mid-list failure is retried whole; a duplicate PUBLISH to a channel
// that already got the event is harmless.
func (a *Adapter) fanout(ctx context.Context, channels []string, body []byte) error {
	publishCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	for _, ch := range channels {
		if err := a.client.Publish(publishCtx, ch, body).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", ch, err)
		}
	}
	return nil
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
