package httpclient

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledClient wraps a Client with a token-bucket limiter so that every
// request waits out the configured interval first. The remote API enforces
// rate limits, so pacing is mandatory for all callers sharing a client.
type ThrottledClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewThrottledClient decorates inner with one request per interval. A
// non-positive interval disables throttling.
func NewThrottledClient(inner Client, interval time.Duration) *ThrottledClient {
	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &ThrottledClient{inner: inner, limiter: limiter}
}

// Get waits for the limiter, then delegates to the wrapped client.
func (t *ThrottledClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return t.inner.Get(ctx, url, headers)
}
