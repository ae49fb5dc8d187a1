// internal/router/router_test.go
package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

func TestRouter_DefaultTable(t *testing.T) {
	r := New(logger.NewTestLogger(t))

	rule := r.Route(models.IntentClassification{Category: models.CategoryWeather})
	assert.Equal(t, models.CategoryWeather, rule.Category)
	assert.True(t, rule.UseRAG)
	assert.Equal(t, "weather", rule.RAGEndpoint)

	rule = r.Route(models.IntentClassification{Category: models.CategoryDeviceControl})
	assert.Equal(t, []string{"devices"}, rule.Providers)
	assert.False(t, rule.UseWebSearch)
}

func TestRouter_UnknownCategoryNeverFails(t *testing.T) {
	r := New(logger.NewTestLogger(t))

	rule := r.Route(models.IntentClassification{Category: models.CategoryUnknown})
	assert.Equal(t, models.CategoryUnknown, rule.Category)
	assert.True(t, rule.UseWebSearch)
	assert.True(t, rule.UseLLM)

	rule = r.Route(models.IntentClassification{Category: models.Category("never-configured")})
	assert.True(t, rule.UseWebSearch)
}

func TestRouter_ApplyConfig(t *testing.T) {
	r := New(logger.NewTestLogger(t))

	r.ApplyConfig(models.RemoteConfig{
		RoutingRules: []models.RoutingRule{
			{Category: models.CategoryWeather, Providers: []string{"websearch"}, UseWebSearch: true},
		},
	})

	rule := r.Route(models.IntentClassification{Category: models.CategoryWeather})
	assert.False(t, rule.UseRAG)
	assert.Equal(t, []string{"websearch"}, rule.Providers)

	// Sports is gone from the remote table; the generic rule covers it.
	rule = r.Route(models.IntentClassification{Category: models.CategorySports})
	assert.True(t, rule.UseWebSearch)
	assert.Equal(t, 0, rule.Priority)
}

func TestRouter_EmptyConfigKeepsDefaults(t *testing.T) {
	r := New(logger.NewTestLogger(t))

	r.ApplyConfig(models.RemoteConfig{})

	rule := r.Route(models.IntentClassification{Category: models.CategoryWeather})
	assert.True(t, rule.UseRAG)
}
