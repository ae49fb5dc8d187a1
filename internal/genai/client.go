// internal/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"query-orchestrator/internal/common/logger"
)

var (
	ErrLLMTimeout         = errors.New("LLM_TIMEOUT")
	ErrLLMSynthesisFailed = errors.New("LLM_SYNTHESIS_FAILED")
)

// Config holds the generation API settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// Request is one generation call. Temperature and MaxTokens override the
// client defaults when non-zero.
type Request struct {
	Prompt      string
	Context     map[string]interface{}
	Temperature float64
	MaxTokens   int
}

// Client calls the text-generation API with retry and backoff. Timeouts
// surface as ErrLLMTimeout so callers can distinguish them from hard
// synthesis failures.
type Client struct {
	config Config
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &Client{
		config: cfg,
		// No client-level timeout; the per-call context bounds the request.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{"component": "genai"}),
	}
}

// Generate produces text for the request. Retries transient failures with
// exponential backoff inside the caller's deadline.
func (c *Client) Generate(ctx context.Context, genReq Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	temperature := genReq.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	maxTokens := genReq.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	body, err := json.Marshal(map[string]interface{}{
		"prompt":      genReq.Prompt,
		"context":     genReq.Context,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrLLMTimeout
			}
		}

		text, err := c.generateOnce(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ErrLLMTimeout
		}

		c.logger.Warn("generation attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	if ctx.Err() == context.DeadlineExceeded {
		return "", ErrLLMTimeout
	}
	return "", fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/ai/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation API returned %d", resp.StatusCode)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", fmt.Errorf("generation API returned empty text")
	}
	return text, nil
}
