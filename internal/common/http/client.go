// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is a thin wrapper carrying a shared timeout and an optional
// bearer credential for the upstream APIs.
type Client struct {
	httpClient *http.Client
	bearer     string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewBearerClient returns a client that adds an Authorization header to
// every request it sends.
func NewBearerClient(timeout time.Duration, token string) *Client {
	c := NewClient(timeout)
	c.bearer = token
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.Do(req)
}
