package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// inboxPath is the path every participant agent exposes for inbound messages.
const inboxPath = "/v1/inbox"

// HTTPTransport implements Transport by POSTing JSON envelopes to the
// recipient's endpoint.
type HTTPTransport struct {
	httpClient *http.Client
}

// NewHTTPTransport creates an HTTP transport with a bounded request timeout.
// Callers may layer tighter deadlines through ctx.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{httpClient: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) Send(ctx context.Context, endpoint string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	url := strings.TrimRight(endpoint, "/") + inboxPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a little of the body for the log line; recipients are not
		// trusted to return anything well-formed.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("send to %s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
