package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitalsink/vitalsink/adapter"
	"github.com/vitalsink/vitalsink/iox"
	"github.com/vitalsink/vitalsink/types"
)

// partialReport mimics an ingestion where one chunk lost a row, so the
// derived event carries a partial status and a mixed count breakdown.
func partialReport() *types.IngestionReport {
	return &types.IngestionReport{
		IngestID:   uuid.MustParse("0b9f1a62-3c41-45d8-9d20-5a7f10c3e8b4"),
		UserID:     uuid.MustParse("7f3e9a10-88d2-4b61-b0cf-2d94c1e55a03"),
		TotalRows:  120,
		Accepted:   112,
		Rejected:   5,
		Duplicated: 2,
		Failed:     1,
		Elapsed:    1500 * time.Millisecond,
	}
}

func testEvent() *adapter.IngestionCompletedEvent {
	return adapter.FromReport(partialReport(), "2026-08-01T07:00:00Z")
}

func decodeEvent(t *testing.T, r *http.Request) adapter.IngestionCompletedEvent {
	t.Helper()
	var ev adapter.IngestionCompletedEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

func TestPublish_DeliversReportEvent(t *testing.T) {
	var received adapter.IngestionCompletedEvent
	var eventHeader, ingestHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		eventHeader = r.Header.Get(HeaderEvent)
		ingestHeader = r.Header.Get(HeaderIngestID)
		received = decodeEvent(t, r)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	event := testEvent()
	if err := a.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if received.Status != "partial" {
		t.Errorf("status = %s, want partial", received.Status)
	}
	if received.Accepted != 112 || received.Failed != 1 {
		t.Errorf("accepted/failed = %d/%d, want 112/1", received.Accepted, received.Failed)
	}
	if received.DurationMs != 1500 {
		t.Errorf("duration_ms = %d, want 1500", received.DurationMs)
	}
	if eventHeader != "ingestion_completed" {
		t.Errorf("%s = %s, want ingestion_completed", HeaderEvent, eventHeader)
	}
	if ingestHeader != event.IngestID {
		t.Errorf("%s = %s, want %s", HeaderIngestID, ingestHeader, event.IngestID)
	}
}

func TestPublish_CustomHeaders(t *testing.T) {
	var authHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a, err := New(Config{
		URL:     ts.URL,
		Headers: map[string]string{"Authorization": "Bearer sync-consumer"},
		Retries: 0,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	if err := a.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if authHeader != "Bearer sync-consumer" {
		t.Errorf("Authorization = %s, want Bearer sync-consumer", authHeader)
	}
}

func TestPublish_RedeliversAfterServerErrors(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 3, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	if err := a.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish should succeed after redelivery: %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestPublish_GivesUpAfterRetryBudget(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 2, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	err = a.Publish(context.Background(), testEvent())
	if err == nil {
		t.Fatal("publish should fail when every attempt gets a 503")
	}
	if !strings.Contains(err.Error(), "gave up after 3 attempts") {
		t.Errorf("error = %v, want attempt count in message", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestPublish_ClientErrorIsFinal(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	err = a.Publish(context.Background(), testEvent())
	if err == nil {
		t.Fatal("publish should fail on 422")
	}
	if !strings.Contains(err.Error(), "non-retriable") {
		t.Errorf("error = %v, want non-retriable", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1: 4xx must not redeliver", got)
	}
}

func TestPublish_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 5})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.Publish(ctx, testEvent()); err == nil {
		t.Fatal("publish should fail on canceled context")
	}
}

func TestPublish_AcceptsAny2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	a, err := New(Config{URL: ts.URL, Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	if err := a.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing URL")
	}
}

func TestNew_RejectsNegativeRetries(t *testing.T) {
	if _, err := New(Config{URL: "http://localhost:1", Retries: -1}); err == nil {
		t.Fatal("expected error for negative retries")
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	a, err := New(Config{URL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer iox.DiscardClose(a)

	if a.client.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", a.client.Timeout, DefaultTimeout)
	}
	if a.config.Retries != 0 {
		t.Errorf("retries = %d, want 0 when unset", a.config.Retries)
	}
}
