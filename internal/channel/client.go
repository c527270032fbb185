// Package channel delivers approved replies to the booking channel's
// messaging API.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

// Client posts outgoing messages to the channel messaging API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a channel API client.
func NewClient(baseURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log,
	}
}

type dispatchPayload struct {
	ThreadKey string `json:"thread_key"`
	Body      string `json:"body"`
}

// Dispatch sends the reply body to the guest thread. A non-2xx response
// is returned as an error so the send is recorded as failed.
func (c *Client) Dispatch(ctx context.Context, threadKey, body string) error {
	payload := dispatchPayload{
		ThreadKey: threadKey,
		Body:      body,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/threads/%s/messages", c.baseURL, threadKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("channel API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("channel API rejected dispatch",
			zap.Int("status", resp.StatusCode),
			zap.String("thread_key", threadKey),
		)
		return fmt.Errorf("channel API returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
