package httpclient

import "context"

// Response is the slice of an HTTP response the API client decodes from.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client issues GET requests. Tests inject fakes; production wires the
// resty adapter, usually wrapped in a ThrottledClient.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
