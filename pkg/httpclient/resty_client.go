package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient is the production Client, backed by resty. The note API only
// needs GET with per-request headers, so the adapter surface stays small.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient returns a GET-only client with the given timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: resty.New().SetTimeout(timeout)}
}

// NewRestyHTTPClient hands out the underlying resty.Client for callers that
// need more than Get, such as the webhook publisher's POSTs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().SetTimeout(timeout)
}

func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp: resp}, nil
}

type restyResponse struct {
	resp *resty.Response
}

func (r restyResponse) Body() []byte    { return r.resp.Body() }
func (r restyResponse) StatusCode() int { return r.resp.StatusCode() }
