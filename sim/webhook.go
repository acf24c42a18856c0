package sim

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/indcloud/console/data"
)

const maxResponseBody = 10 * 1024

// runWebhookTest performs the request described by req and records the outcome
func runWebhookTest(ctx context.Context, hc *http.Client, req data.WebhookTestRequest) data.WebhookTest {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}

	ret := data.WebhookTest{
		Name:        req.Name,
		URL:         req.URL,
		Method:      method,
		Headers:     req.Headers,
		RequestBody: req.Body,
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	start := time.Now()
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		ret.ErrorMessage = err.Error()
		return ret
	}
	for k, v := range req.Headers {
		hreq.Header.Set(k, v)
	}
	if req.Body != "" && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(hreq)
	ret.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		ret.ErrorMessage = err.Error()
		return ret
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	ret.StatusCode = resp.StatusCode
	ret.ResponseBody = string(b)
	return ret
}
