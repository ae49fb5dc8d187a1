// internal/search/engine.go
package search

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/common/metrics"
	"query-orchestrator/internal/models"
)

// Engine fans a sub-query out to the providers its routing rule names.
// Providers run concurrently, each under its own timeout; one provider's
// failure never affects the others.
type Engine struct {
	providers       map[string]Provider
	providerTimeout time.Duration
	perProviderMax  int
	logger          logger.Logger
}

func NewEngine(providerTimeout time.Duration, perProviderMax int, log logger.Logger) *Engine {
	if perProviderMax <= 0 {
		perProviderMax = 5
	}
	return &Engine{
		providers:       make(map[string]Provider),
		providerTimeout: providerTimeout,
		perProviderMax:  perProviderMax,
		logger:          log.With(map[string]interface{}{"stage": "search"}),
	}
}

// Register adds a provider. Not safe to call after Search begins; wiring
// happens once at startup.
func (e *Engine) Register(p Provider) {
	e.providers[p.ID()] = p
}

// Search queries every provider the rule names in parallel and returns the
// surviving results grouped in the rule's provider order. A RAG provider
// whose payload fails its schema gate always falls back to web search,
// bypassing RAG-only routing.
func (e *Engine) Search(ctx context.Context, cls models.IntentClassification, rule models.RoutingRule) []models.SearchResult {
	ids := rule.Providers
	if len(ids) == 0 {
		return nil
	}

	perProvider := make([][]models.SearchResult, len(ids))
	fallback := make([]bool, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		provider, ok := e.providers[id]
		if !ok {
			e.logger.Warn("routing rule names unregistered provider", map[string]interface{}{
				"provider": id,
			})
			continue
		}

		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results, needsFallback := e.callProvider(ctx, p, cls)
			perProvider[i] = results
			fallback[i] = needsFallback
		}(i, provider)
	}
	wg.Wait()

	// Schema-gate fallback: replace a failed RAG slot with a web search
	// call, even when the rule routes to RAG only. Suppressed only when
	// web search already ran for this rule.
	for i := range ids {
		if !fallback[i] {
			continue
		}
		if containsID(ids, "websearch") {
			break
		}
		if ws, ok := e.providers["websearch"]; ok {
			results, _ := e.callProvider(ctx, ws, cls)
			perProvider[i] = results
		}
		break
	}

	var out []models.SearchResult
	for _, results := range perProvider {
		out = append(out, results...)
	}
	return out
}

// callProvider runs one provider under its own timeout. The second return
// value reports a schema-gate failure that should trigger web-search
// fallback.
func (e *Engine) callProvider(ctx context.Context, p Provider, cls models.IntentClassification) ([]models.SearchResult, bool) {
	pctx, cancel := context.WithTimeout(ctx, e.providerTimeout)
	defer cancel()

	start := time.Now()
	results, err := p.Search(pctx, cls, e.perProviderMax)
	elapsed := time.Since(start)

	if err != nil {
		status := "error"
		schemaFallback := false

		var stdErr *errors.StandardError
		if stderrors.As(err, &stdErr) {
			switch stdErr.Code {
			case errors.ErrCodeProviderTimeout, errors.ErrCodeWebSearchTimeout:
				status = "timeout"
			case errors.ErrCodeSchemaInvalid, errors.ErrCodeSchemaEmpty:
				status = "schema_rejected"
				schemaFallback = true
			}
		} else if pctx.Err() == context.DeadlineExceeded {
			status = "timeout"
		}

		metrics.ProviderCalls.WithLabelValues(p.ID(), status).Inc()
		e.logger.Warn("provider call failed", map[string]interface{}{
			"provider":  p.ID(),
			"status":    status,
			"elapsedMs": elapsed.Milliseconds(),
			"error":     err.Error(),
		})
		return nil, schemaFallback
	}

	if len(results) > e.perProviderMax {
		results = results[:e.perProviderMax]
	}

	metrics.ProviderCalls.WithLabelValues(p.ID(), "ok").Inc()
	e.logger.Debug("provider call completed", map[string]interface{}{
		"provider":  p.ID(),
		"results":   len(results),
		"elapsedMs": elapsed.Milliseconds(),
	})
	return results, false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
