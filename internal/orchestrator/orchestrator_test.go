// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"query-orchestrator/internal/analyzer"
	"query-orchestrator/internal/cache"
	"query-orchestrator/internal/common/database"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/fusion"
	"query-orchestrator/internal/genai"
	"query-orchestrator/internal/models"
	"query-orchestrator/internal/router"
	"query-orchestrator/internal/search"
	"query-orchestrator/internal/validator"
)

// categoryProvider serves canned results per category under the "rag" id.
type categoryProvider struct {
	byCategory map[models.Category][]models.SearchResult
}

func (p *categoryProvider) ID() string { return "rag" }

func (p *categoryProvider) Search(ctx context.Context, cls models.IntentClassification, limit int) ([]models.SearchResult, error) {
	return p.byCategory[cls.Category], nil
}

// substringGenerator picks the first scripted answer whose key appears in
// the prompt; falls back to the last entry.
type substringGenerator struct {
	keys    []string
	answers map[string]string
	calls   int
}

func (g *substringGenerator) Generate(ctx context.Context, req genai.Request) (string, error) {
	g.calls++
	for _, key := range g.keys {
		if strings.Contains(req.Prompt, key) {
			return g.answers[key], nil
		}
	}
	return g.answers[g.keys[len(g.keys)-1]], nil
}

func pipelineForTest(t *testing.T, gen Generator, results map[models.Category][]models.SearchResult) *Orchestrator {
	log := logger.NewTestLogger(t)

	engine := search.NewEngine(time.Second, 5, log)
	engine.Register(&categoryProvider{byCategory: results})

	mr := miniredis.RunT(t)
	redisClient := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	responseCache := cache.New(redisClient, "resp", map[string]int{"weather": 600, "device_control": 0}, 300*time.Second, log)

	return New(
		analyzer.New(0.6, 3, log),
		router.New(log),
		engine,
		fusion.New(0.8, 0.1, 0.2, log),
		validator.NewAnswerValidator(gen, 0.6, 0.4, 0.3, log),
		gen,
		responseCache,
		nil,
		Options{MinAnswerLength: 20, ResultLimit: 3},
		log,
	)
}

func weatherResults() map[models.Category][]models.SearchResult {
	return map[models.Category][]models.SearchResult{
		models.CategoryWeather: {{
			Source:     "rag",
			Title:      "Berlin",
			Snippet:    "Sunny skies, 22 degrees, humidity 40 percent.",
			URL:        "internal://weather/berlin",
			Confidence: 0.92,
		}},
		models.CategoryTime: {{
			Source:     "rag",
			Title:      "Berlin time",
			Snippet:    "It is currently 14:32 in Berlin right now.",
			Confidence: 0.95,
		}},
	}
}

func defaultGenerator() *substringGenerator {
	return &substringGenerator{
		keys: []string{"weather"},
		answers: map[string]string{
			"weather": "It is sunny and 22 degrees in Berlin today.",
		},
	}
}

func TestOrchestrate_SingleIntent(t *testing.T) {
	o := pipelineForTest(t, defaultGenerator(), weatherResults())

	resp := o.Orchestrate(context.Background(), "what's the weather in berlin", "session-1", nil)

	assert.Equal(t, "It is sunny and 22 degrees in Berlin today.", resp.Answer)
	assert.Equal(t, models.CategoryWeather, resp.Category)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, []string{"internal://weather/berlin"}, resp.Citations)
	require.NotNil(t, resp.Validation)
	assert.True(t, resp.Validation.Passed)
	assert.False(t, resp.Cached)
	assert.False(t, resp.Escalated)

	for _, stage := range []string{"analyze", "chain", "validate", "total"} {
		assert.Contains(t, resp.StageLatency, stage)
	}
}

func TestOrchestrate_CompoundQueryMergesInOrder(t *testing.T) {
	o := pipelineForTest(t, defaultGenerator(), weatherResults())

	resp := o.Orchestrate(context.Background(),
		"what's the weather in berlin and what time is it right now", "", nil)

	assert.Equal(t,
		"It is sunny and 22 degrees in Berlin today. It is currently 14:32 in Berlin right now.",
		resp.Answer)
	assert.False(t, resp.Escalated)
}

func TestOrchestrate_SecondCallIsCached(t *testing.T) {
	gen := defaultGenerator()
	o := pipelineForTest(t, gen, weatherResults())

	first := o.Orchestrate(context.Background(), "what's the weather in berlin", "", nil)
	require.False(t, first.Cached)
	callsAfterFirst := gen.calls

	second := o.Orchestrate(context.Background(), "what's the weather in berlin", "", nil)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, callsAfterFirst, gen.calls, "cache hit must not re-synthesize")
}

func TestOrchestrate_ComplexQueryEscalates(t *testing.T) {
	gen := &substringGenerator{
		keys: []string{"explain"},
		answers: map[string]string{
			"explain": "Warm air rises, cools, and condenses into clouds that rain.",
		},
	}
	o := pipelineForTest(t, gen, weatherResults())

	resp := o.Orchestrate(context.Background(), "explain why the weather changes so fast", "", nil)

	assert.True(t, resp.Escalated)
	assert.Equal(t, "Warm air rises, cools, and condenses into clouds that rain.", resp.Answer)
	assert.Equal(t, 1, gen.calls, "one full-query synthesis call")
}

func TestOrchestrate_NoResultsFallsBack(t *testing.T) {
	o := pipelineForTest(t, defaultGenerator(), map[models.Category][]models.SearchResult{})

	resp := o.Orchestrate(context.Background(), "what time is it right now", "", nil)

	assert.Equal(t, FallbackAnswer, resp.Answer)
	assert.False(t, resp.Escalated)
}

func TestOrchestrate_ValidationFailureFallsBack(t *testing.T) {
	gen := &substringGenerator{
		keys: []string{"weather"},
		answers: map[string]string{
			// never contains a weather token, so the corrective retry fails too
			"weather": "I think it will probably be fine over there.",
		},
	}
	o := pipelineForTest(t, gen, weatherResults())

	resp := o.Orchestrate(context.Background(), "what's the weather in berlin", "", nil)

	assert.Equal(t, FallbackAnswer, resp.Answer)
	require.NotNil(t, resp.Validation)
	assert.False(t, resp.Validation.Passed)
	assert.Zero(t, resp.Confidence)
}

func TestOrchestrate_FailingSubAnswerSkippedInCompound(t *testing.T) {
	gen := &substringGenerator{
		keys: []string{"weather"},
		answers: map[string]string{
			// no weather token, so layer 1 and the corrective retry both reject it
			"weather": "I think it will probably be fine over there.",
		},
	}
	o := pipelineForTest(t, gen, weatherResults())

	resp := o.Orchestrate(context.Background(),
		"what's the weather in berlin and what time is it right now", "", nil)

	assert.Equal(t, "It is currently 14:32 in Berlin right now.", resp.Answer,
		"the passing sub-answer survives alone")
	require.NotNil(t, resp.Validation)
	assert.True(t, resp.Validation.Passed)
	assert.Contains(t, resp.Validation.Violations, "missing_weather_token")
	assert.NotContains(t, resp.Citations, "internal://weather/berlin",
		"rejected sub-answers contribute no citations")
	assert.False(t, resp.Escalated)
}

func TestOrchestrate_NeverErrors(t *testing.T) {
	// generator that always fails plus no providers: worst case still answers
	gen := &substringGenerator{keys: []string{""}, answers: map[string]string{"": ""}}
	o := pipelineForTest(t, gen, nil)

	resp := o.Orchestrate(context.Background(), "qwerty asdf zxcv", "", nil)
	assert.NotEmpty(t, resp.Answer)
}
