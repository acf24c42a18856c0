package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/indcloud/console/data"
)

const webhookTestsPath = "/api/v1/webhook-tests"

// TestWebhook asks the backend to call a webhook and record the result
func (c *Client) TestWebhook(ctx context.Context, req data.WebhookTestRequest) (data.WebhookTest, error) {
	var ret data.WebhookTest
	err := c.do(ctx, http.MethodPost, webhookTestsPath, nil, req, &ret)
	return ret, err
}

// WebhookTests returns a page of past webhook tests, newest first
func (c *Client) WebhookTests(ctx context.Context, page, size int) (data.Page[data.WebhookTest], error) {
	if size <= 0 {
		size = 20
	}
	q := url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
	var ret data.Page[data.WebhookTest]
	err := c.do(ctx, http.MethodGet, webhookTestsPath, q, nil, &ret)
	return ret, err
}

// WebhookTest fetches one webhook test result
func (c *Client) WebhookTest(ctx context.Context, id int64) (data.WebhookTest, error) {
	var ret data.WebhookTest
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%v/%v", webhookTestsPath, id), nil, nil, &ret)
	return ret, err
}

// DeleteWebhookTest removes a webhook test from the history
func (c *Client) DeleteWebhookTest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%v/%v", webhookTestsPath, id), nil, nil, nil)
}
