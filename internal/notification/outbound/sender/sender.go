package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// gateway is a thin JSON-over-HTTP client for the external delivery
// providers (SMS, WhatsApp, push). Transient failures are retried with
// fibonacci backoff; 4xx responses are treated as permanent.
type gateway struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func newGateway(baseURL, apiKey string, timeout time.Duration) *gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &gateway{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (g *gateway) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(3*time.Second, b)
	b = retry.WithMaxRetries(3, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if g.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+g.apiKey)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("gateway returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("gateway rejected request with %d", resp.StatusCode)
		}

		return nil
	})
}
