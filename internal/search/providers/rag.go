// internal/search/providers/rag.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
	"query-orchestrator/internal/validator"
)

// ragEnvelopeSchema is the contract every structured-data service must
// honor. Payloads that fail it are rejected before any of their content
// can reach fusion.
const ragEnvelopeSchema = `{
	"type": "object",
	"required": ["status", "data"],
	"properties": {
		"status": {"type": "string", "enum": ["ok", "empty", "error"]},
		"data": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "content"],
				"properties": {
					"title": {"type": "string"},
					"content": {"type": "string", "minLength": 1},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1},
					"url": {"type": "string"},
					"metadata": {"type": "object"}
				}
			}
		}
	}
}`

// RAG is the virtual provider in front of the per-category structured-data
// services. One instance serves every category; the endpoint is chosen from
// the classification's category at call time.
type RAG struct {
	endpoints map[string]string // category -> base URL
	gate      *validator.PayloadValidator
	client    *http.Client
	logger    logger.Logger
}

func NewRAG(endpoints map[string]string, timeout time.Duration, log logger.Logger) (*RAG, error) {
	gate, err := validator.NewPayloadValidator(ragEnvelopeSchema)
	if err != nil {
		return nil, err
	}
	return &RAG{
		endpoints: endpoints,
		gate:      gate,
		client:    &http.Client{Timeout: timeout},
		logger:    log.With(map[string]interface{}{"provider": "rag"}),
	}, nil
}

func (r *RAG) ID() string { return "rag" }

func (r *RAG) Search(ctx context.Context, cls models.IntentClassification, limit int) ([]models.SearchResult, error) {
	category := string(cls.Category)
	endpoint, ok := r.endpoints[category]
	if !ok {
		return nil, errors.NewProviderUnavailableError(r.ID(), fmt.Errorf("no endpoint for category %s", category))
	}

	body, err := json.Marshal(map[string]interface{}{
		"query":    cls.SubQuery.Text,
		"entities": cls.Entities,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewProviderTimeoutError(r.ID())
		}
		return nil, errors.NewProviderUnavailableError(r.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderUnavailableError(r.ID(), fmt.Errorf("rag service returned %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(r.ID(), err)
	}

	switch verdict, details := r.gate.Validate(raw); verdict {
	case validator.VerdictInvalid:
		r.logger.Warn("rag payload rejected", map[string]interface{}{
			"category":   category,
			"violations": details,
		})
		return nil, errors.NewSchemaInvalidError(category, details)
	case validator.VerdictEmpty:
		return nil, errors.NewSchemaEmptyError(category)
	}

	return r.convert(category, raw, limit)
}

func (r *RAG) convert(category string, raw []byte, limit int) ([]models.SearchResult, error) {
	var envelope struct {
		Data []struct {
			Title      string                 `json:"title"`
			Content    string                 `json:"content"`
			Confidence float64                `json:"confidence"`
			URL        string                 `json:"url"`
			Metadata   map[string]interface{} `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.NewSchemaInvalidError(category, err.Error())
	}

	results := make([]models.SearchResult, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		confidence := item.Confidence
		if confidence == 0 {
			// Structured services that don't score default to high trust.
			confidence = 0.9
		}
		results = append(results, models.SearchResult{
			Source:     r.ID(),
			Title:      item.Title,
			Snippet:    item.Content,
			URL:        item.URL,
			Confidence: confidence,
			Metadata:   item.Metadata,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
