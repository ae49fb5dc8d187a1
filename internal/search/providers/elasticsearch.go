// internal/search/providers/elasticsearch.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"query-orchestrator/internal/common/database"
	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// DocumentSearch retrieves event and news documents from an Elasticsearch
// index. One instance per index; id distinguishes "events" from "news".
type DocumentSearch struct {
	id     string
	index  string
	es     *database.ElasticsearchClient
	logger logger.Logger
}

func NewDocumentSearch(id, index string, es *database.ElasticsearchClient, log logger.Logger) *DocumentSearch {
	return &DocumentSearch{
		id:     id,
		index:  index,
		es:     es,
		logger: log.With(map[string]interface{}{"provider": id}),
	}
}

func (d *DocumentSearch) ID() string { return d.id }

func (d *DocumentSearch) Search(ctx context.Context, cls models.IntentClassification, limit int) ([]models.SearchResult, error) {
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  cls.SubQuery.Text,
				"fields": []string{"title^2", "body", "summary"},
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"published_at": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := d.es.Client.Search(
		d.es.Client.Search.WithContext(ctx),
		d.es.Client.Search.WithIndex(d.index),
		d.es.Client.Search.WithBody(&buf),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewProviderTimeoutError(d.id)
		}
		return nil, errors.NewProviderUnavailableError(d.id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewProviderUnavailableError(d.id, fmt.Errorf("elasticsearch returned %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Title       string     `json:"title"`
					Summary     string     `json:"summary"`
					Body        string     `json:"body"`
					URL         string     `json:"url"`
					PublishedAt *time.Time `json:"published_at"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewProviderUnavailableError(d.id, err)
	}

	results := make([]models.SearchResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		snippet := hit.Source.Summary
		if snippet == "" {
			snippet = hit.Source.Body
		}
		confidence := 0.5
		if parsed.Hits.MaxScore > 0 {
			confidence = 0.5 + 0.5*(hit.Score/parsed.Hits.MaxScore)
		}
		results = append(results, models.SearchResult{
			Source:      d.id,
			Title:       hit.Source.Title,
			Snippet:     snippet,
			URL:         hit.Source.URL,
			Confidence:  confidence,
			PublishedAt: hit.Source.PublishedAt,
		})
	}

	d.logger.Debug("document search completed", map[string]interface{}{
		"index":   d.index,
		"results": len(results),
	})
	return results, nil
}
