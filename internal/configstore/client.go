// internal/configstore/client.go
package configstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/httpclient"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// Client fetches pattern and routing configuration from the configuration
// service. A failed fetch is never fatal; callers keep their last good
// snapshot.
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
	maxRetries int
	logger     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpclient.NewClient(timeout),
		maxRetries: 3,
		logger:     log.With(map[string]interface{}{"component": "configstore"}),
	}
}

// Fetch retrieves the current remote configuration. Retries transient
// failures with exponential backoff before giving up.
func (c *Client) Fetch(ctx context.Context) (models.RemoteConfig, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		rc, err := c.fetchOnce(ctx)
		if err == nil {
			return rc, nil
		}
		lastErr = err

		c.logger.Warn("configuration fetch failed", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt < c.maxRetries {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return models.RemoteConfig{}, errors.NewConfigUnavailableError(ctx.Err())
			}
		}
	}

	return models.RemoteConfig{}, errors.NewConfigUnavailableError(lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) (models.RemoteConfig, error) {
	url := c.baseURL + "/v1/pipeline-config"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.RemoteConfig{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.RemoteConfig{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.RemoteConfig{}, fmt.Errorf("config service returned %d: %s", resp.StatusCode, string(body))
	}

	var rc models.RemoteConfig
	if err := json.NewDecoder(resp.Body).Decode(&rc); err != nil {
		return models.RemoteConfig{}, fmt.Errorf("decoding config payload: %w", err)
	}
	return rc, nil
}
