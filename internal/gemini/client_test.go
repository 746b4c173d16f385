package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func envelope(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return body
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		APIKey:         "test-key",
		Model:          "gemini-pro",
		BaseURL:        baseURL,
		MaxAttempts:    3,
		BucketCapacity: 100,
		RefillInterval: time.Minute,
		BackoffUnit:    10 * time.Millisecond,
	}, slog.New(slog.NewTextHandler(testWriter{t}, nil)))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestEnrich_RetriesThrottledThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
			return
		}
		w.Write(envelope(t, `{"name":"John Doe","email":"john@x.com"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	start := time.Now()
	rec, ok, err := c.Enrich(context.Background(), "John Doe, john@x.com")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected recovery to succeed")
	}
	if rec.Name != "John Doe" {
		t.Errorf("expected name %q, got %q", "John Doe", rec.Name)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	// Backoff: 2^1 + 2^2 units at 10ms per unit.
	if elapsed < 60*time.Millisecond {
		t.Errorf("expected backoff delays of at least 60ms, elapsed %v", elapsed)
	}
}

func TestEnrich_ThrottledEveryAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, _, err := c.Enrich(context.Background(), "text")
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", got)
	}
}

func TestEnrich_NonRetryableStatusFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	start := time.Now()
	_, _, err := c.Enrich(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("500 must not be treated as throttling: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("expected immediate failure, took %v", elapsed)
	}
}

func TestEnrich_MalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, _, err := c.Enrich(context.Background(), "text")
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestEnrich_APIErrorInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":400,"status":"INVALID_ARGUMENT","message":"bad prompt"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, _, err := c.Enrich(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error when the body carries an API error")
	}
}

func TestEnrich_UnrecoverableTextIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope(t, "I'm sorry, I can't help with that."))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	rec, ok, err := c.Enrich(context.Background(), "text")
	if err != nil {
		t.Fatalf("recovery failure must not surface as an error, got %v", err)
	}
	if ok || !rec.IsEmpty() {
		t.Errorf("expected empty result, got ok=%v rec=%+v", ok, rec)
	}
}

func TestEnrich_ContextCancellationDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:         "test-key",
		Model:          "gemini-pro",
		BaseURL:        srv.URL,
		MaxAttempts:    3,
		BucketCapacity: 100,
		RefillInterval: time.Minute,
		BackoffUnit:    10 * time.Second,
	}, slog.New(slog.NewTextHandler(testWriter{t}, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := c.Enrich(ctx, "text")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected prompt abandonment on cancellation, took %v", elapsed)
	}
}

func TestBackoff_Exponential(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tc := range tests {
		if got := Backoff(tc.attempt, time.Second); got != tc.want {
			t.Errorf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
