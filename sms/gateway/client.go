// Package gateway talks to an HTTP SMS gateway: outbound texts are posted to
// the gateway's API and inbound texts arrive on a webhook.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oppamcare/oppam/sms"
)

var _ sms.Transport = (*Client)(nil)

type Client struct {
	client *resty.Client
}

type ClientOption func(c *resty.Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	if token != "" {
		c.SetAuthToken(token)
	}
	for _, opt := range opts {
		opt(c)
	}
	return &Client{client: c}
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Send(ctx context.Context, to, body string) error {
	var errRes errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(sendRequest{To: to, Body: body}).
		SetError(&errRes).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("post gateway message: %w", err)
	}
	if resp.IsError() {
		if errRes.Error.Message != "" {
			return fmt.Errorf("gateway status %d: %s", resp.StatusCode(), errRes.Error.Message)
		}
		return fmt.Errorf("gateway status %d", resp.StatusCode())
	}
	return nil
}
