// Package syncjob invokes the asynchronous backend job that reconciles a
// single writer record into the search index after a store write.
package syncjob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config holds the sync job endpoint settings.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client posts reconcile jobs. No response contract beyond the status code is
// relied upon: the job runs asynchronously on the backend.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewClient creates a sync job client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		token:      cfg.Token,
	}
}

type jobRequest struct {
	Action   string `json:"action"`
	WriterID string `json:"writer_id"`
}

// Invoke submits one reconcile job. action is "upsert" or "delete".
func (c *Client) Invoke(ctx context.Context, action, writerID string) error {
	body, err := json.Marshal(jobRequest{Action: action, WriterID: writerID})
	if err != nil {
		return fmt.Errorf("marshal sync job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke sync job: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sync job status %d", resp.StatusCode)
	}
	return nil
}
