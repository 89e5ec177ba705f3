package httpclient

import (
	"context"
	"testing"
	"time"
)

type countingClient struct {
	calls int
}

type emptyResponse struct{}

func (emptyResponse) Body() []byte    { return nil }
func (emptyResponse) StatusCode() int { return 200 }

func (c *countingClient) Get(context.Context, string, map[string]string) (Response, error) {
	c.calls++
	return emptyResponse{}, nil
}

func TestThrottledClientPacesRequests(t *testing.T) {
	inner := &countingClient{}
	client := NewThrottledClient(inner, 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Get(context.Background(), "https://example.com", nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	elapsed := time.Since(start)

	if inner.calls != 3 {
		t.Fatalf("expected 3 delegated calls, got %d", inner.calls)
	}
	// The first request draws the stored token; the next two wait an
	// interval each.
	if elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least 100ms of pacing, took %v", elapsed)
	}
}

func TestThrottledClientZeroIntervalPassesThrough(t *testing.T) {
	inner := &countingClient{}
	client := NewThrottledClient(inner, 0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := client.Get(context.Background(), "https://example.com", nil); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("unthrottled client should not wait, took %v", elapsed)
	}
	if inner.calls != 5 {
		t.Fatalf("expected 5 calls, got %d", inner.calls)
	}
}

func TestThrottledClientHonorsCancelledContext(t *testing.T) {
	inner := &countingClient{}
	client := NewThrottledClient(inner, time.Hour)

	// Drain the stored token.
	if _, err := client.Get(context.Background(), "https://example.com", nil); err != nil {
		t.Fatalf("first Get: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Get(ctx, "https://example.com", nil); err == nil {
		t.Fatalf("expected context error while waiting for the limiter")
	}
	if inner.calls != 1 {
		t.Fatalf("cancelled request must not reach the inner client, calls=%d", inner.calls)
	}
}
