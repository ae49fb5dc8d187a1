// internal/search/providers/websearch.go
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// WebSearchConfig holds the external search API settings.
type WebSearchConfig struct {
	BaseURL      string
	APIKey       string
	EngineID     string
	Timeout      time.Duration
	MaxResults   int
	MinRelevance float64
}

// WebSearch queries a programmable search engine API. Timeouts return
// empty rather than retrying; web search is the fallback of last resort
// before LLM synthesis.
type WebSearch struct {
	config WebSearchConfig
	client *http.Client
	logger logger.Logger
}

func NewWebSearch(cfg WebSearchConfig, log logger.Logger) *WebSearch {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = 0.4
	}
	return &WebSearch{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log.With(map[string]interface{}{"provider": "websearch"}),
	}
}

func (w *WebSearch) ID() string { return "websearch" }

func (w *WebSearch) Search(ctx context.Context, cls models.IntentClassification, limit int) ([]models.SearchResult, error) {
	query := w.buildQuery(cls)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.buildSearchURL(query, limit), nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded ||
			strings.Contains(err.Error(), "timeout") ||
			strings.Contains(err.Error(), "deadline") ||
			strings.Contains(err.Error(), "Client.Timeout") {
			return nil, errors.NewWebSearchTimeoutError()
		}
		return nil, errors.NewProviderUnavailableError(w.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderUnavailableError(w.ID(), fmt.Errorf("search API returned %d", resp.StatusCode))
	}

	var apiResponse struct {
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Mime    string `json:"mime"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewProviderUnavailableError(w.ID(), err)
	}

	results := w.processItems(apiResponse.Items, limit)

	w.logger.Debug("web search completed", map[string]interface{}{
		"query":       query,
		"resultCount": len(results),
	})
	return results, nil
}

// buildQuery appends string-valued entities to sharpen the search terms.
func (w *WebSearch) buildQuery(cls models.IntentClassification) string {
	query := cls.SubQuery.Text
	for _, name := range []string{"location", "team", "device"} {
		if v, ok := cls.Entities[name].(string); ok && !strings.Contains(query, v) {
			query += " " + v
		}
	}
	return models.Normalize(query)
}

func (w *WebSearch) buildSearchURL(query string, limit int) string {
	baseURL, _ := url.Parse(w.config.BaseURL)
	params := url.Values{}
	params.Add("key", w.config.APIKey)
	params.Add("cx", w.config.EngineID)
	params.Add("q", query)
	params.Add("num", fmt.Sprintf("%d", limit))
	baseURL.RawQuery = params.Encode()
	return baseURL.String()
}

func (w *WebSearch) processItems(items []struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Mime    string `json:"mime"`
}, limit int) []models.SearchResult {
	seen := make(map[string]bool)
	var results []models.SearchResult

	for _, item := range items {
		// Skip non-HTML
		if item.Mime != "" && !strings.Contains(item.Mime, "html") {
			continue
		}

		// Dedupe by URL
		if seen[item.Link] {
			continue
		}
		seen[item.Link] = true

		confidence := 0.6
		if strings.Contains(item.Link, ".gov") || strings.Contains(item.Link, ".edu") {
			confidence += 0.2
		}
		if strings.Contains(strings.ToLower(item.Title), "official") {
			confidence += 0.1
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		if confidence >= w.config.MinRelevance {
			results = append(results, models.SearchResult{
				Source:     "websearch",
				Title:      item.Title,
				Snippet:    item.Snippet,
				URL:        item.Link,
				Confidence: confidence,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
