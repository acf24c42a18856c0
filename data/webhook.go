package data

// WebhookTestRequest describes a request the backend fires at a webhook URL
type WebhookTestRequest struct {
	Name    string            `json:"name,omitempty"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// WebhookTest is the recorded outcome of a webhook test
type WebhookTest struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name,omitempty"`
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers,omitempty"`
	RequestBody  string            `json:"requestBody,omitempty"`
	StatusCode   int               `json:"statusCode"`
	ResponseBody string            `json:"responseBody,omitempty"`
	DurationMs   int64             `json:"durationMs"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	CreatedAt    *Time             `json:"createdAt,omitempty"`
}

// Succeeded reports whether the webhook answered with a 2xx status
func (w WebhookTest) Succeeded() bool {
	return w.ErrorMessage == "" && w.StatusCode >= 200 && w.StatusCode < 300
}
