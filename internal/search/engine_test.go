// internal/search/engine_test.go
package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// fakeProvider is a scriptable Provider for engine tests.
type fakeProvider struct {
	id      string
	results []models.SearchResult
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Search(ctx context.Context, cls models.IntentClassification, limit int) ([]models.SearchResult, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, errors.NewProviderTimeoutError(f.id)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func result(source, title string, confidence float64) models.SearchResult {
	return models.SearchResult{Source: source, Title: title, Snippet: title + " snippet", Confidence: confidence}
}

func TestEngine_FanOutMergesInProviderOrder(t *testing.T) {
	e := NewEngine(time.Second, 5, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "rag", results: []models.SearchResult{result("rag", "structured", 0.9)}})
	e.Register(&fakeProvider{id: "websearch", results: []models.SearchResult{result("websearch", "web", 0.7)}})

	rule := models.RoutingRule{Providers: []string{"rag", "websearch"}, UseWebSearch: true}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	require.Len(t, got, 2)
	assert.Equal(t, "rag", got[0].Source)
	assert.Equal(t, "websearch", got[1].Source)
}

func TestEngine_ProviderFailureIsIsolated(t *testing.T) {
	e := NewEngine(time.Second, 5, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "events", err: errors.NewProviderUnavailableError("events", assert.AnError)})
	e.Register(&fakeProvider{id: "websearch", results: []models.SearchResult{result("websearch", "web", 0.7)}})

	rule := models.RoutingRule{Providers: []string{"events", "websearch"}, UseWebSearch: true}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "websearch", got[0].Source)
}

func TestEngine_SlowProviderTimesOutAlone(t *testing.T) {
	e := NewEngine(50*time.Millisecond, 5, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "rag", delay: 500 * time.Millisecond})
	e.Register(&fakeProvider{id: "news", results: []models.SearchResult{result("news", "headline", 0.8)}})

	rule := models.RoutingRule{Providers: []string{"rag", "news"}}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "news", got[0].Source)
}

func TestEngine_SchemaFailureFallsBackToWebSearch(t *testing.T) {
	ws := &fakeProvider{id: "websearch", results: []models.SearchResult{result("websearch", "fallback", 0.6)}}
	e := NewEngine(time.Second, 5, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "rag", err: errors.NewSchemaInvalidError("weather", "missing status")})
	e.Register(ws)

	rule := models.RoutingRule{Providers: []string{"rag"}, UseRAG: true, UseWebSearch: true}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "websearch", got[0].Source)
	assert.Equal(t, 1, ws.calls)
}

func TestEngine_NoDoubleWebSearchOnFallback(t *testing.T) {
	ws := &fakeProvider{id: "websearch", results: []models.SearchResult{result("websearch", "web", 0.6)}}
	e := NewEngine(time.Second, 5, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "rag", err: errors.NewSchemaEmptyError("sports")})
	e.Register(ws)

	// websearch already in the rule: the failed rag slot must not add a second call
	rule := models.RoutingRule{Providers: []string{"rag", "websearch"}, UseRAG: true, UseWebSearch: true}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	require.Len(t, got, 1)
	assert.Equal(t, 1, ws.calls)
}

func TestEngine_SchemaFailureBypassesRAGOnlyRouting(t *testing.T) {
	ws := &fakeProvider{id: "websearch", results: []models.SearchResult{result("websearch", "web", 0.6)}}
	e := NewEngine(time.Second, 5, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "rag", err: errors.NewSchemaEmptyError("time")})
	e.Register(ws)

	// RAG-only rule: the fallback must still fire on a rejected payload
	rule := models.RoutingRule{Providers: []string{"rag"}, UseRAG: true}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "websearch", got[0].Source)
	assert.Equal(t, 1, ws.calls)
}

func TestEngine_PerProviderResultCap(t *testing.T) {
	many := make([]models.SearchResult, 10)
	for i := range many {
		many[i] = result("websearch", "hit", 0.5)
	}
	e := NewEngine(time.Second, 3, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "websearch", results: many})

	rule := models.RoutingRule{Providers: []string{"websearch"}, UseWebSearch: true}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	assert.Len(t, got, 3)
}

func TestEngine_UnregisteredProviderSkipped(t *testing.T) {
	e := NewEngine(time.Second, 5, logger.NewTestLogger(t))
	e.Register(&fakeProvider{id: "news", results: []models.SearchResult{result("news", "headline", 0.8)}})

	rule := models.RoutingRule{Providers: []string{"ghost", "news"}}

	got := e.Search(context.Background(), models.IntentClassification{}, rule)
	require.Len(t, got, 1)
	assert.Equal(t, "news", got[0].Source)
}
