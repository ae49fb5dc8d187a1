// internal/router/defaults.go
package router

import "query-orchestrator/internal/models"

// DefaultRules is the compiled-in routing table. Provider ids must match
// the ids the search engine registers.
func DefaultRules() []models.RoutingRule {
	return []models.RoutingRule{
		{
			Category:    models.CategoryWeather,
			Providers:   []string{"rag"},
			UseRAG:      true,
			RAGEndpoint: "weather",
			UseLLM:      true,
			Priority:    90,
		},
		{
			Category:  models.CategoryTime,
			Providers: []string{"rag"},
			UseRAG:    true, RAGEndpoint: "time",
			Priority: 90,
		},
		{
			Category:     models.CategorySports,
			Providers:    []string{"rag", "websearch"},
			UseRAG:       true,
			RAGEndpoint:  "sports",
			UseWebSearch: true,
			UseLLM:       true,
			Priority:     80,
		},
		{
			Category:  models.CategoryDeviceControl,
			Providers: []string{"devices"},
			Priority:  100,
		},
		{
			Category:     models.CategoryEvents,
			Providers:    []string{"events", "websearch"},
			UseWebSearch: true,
			UseLLM:       true,
			Priority:     70,
		},
		{
			Category:     models.CategoryNews,
			Providers:    []string{"news", "websearch"},
			UseWebSearch: true,
			UseLLM:       true,
			Priority:     60,
		},
		{
			Category:     models.CategoryFlights,
			Providers:    []string{"rag", "websearch"},
			UseRAG:       true,
			RAGEndpoint:  "flights",
			UseWebSearch: true,
			UseLLM:       true,
			Priority:     70,
		},
		{
			Category:     models.CategoryLocation,
			Providers:    []string{"websearch"},
			UseWebSearch: true,
			UseLLM:       true,
			Priority:     40,
		},
		{
			Category:     models.CategoryGeneral,
			Providers:    []string{"websearch"},
			UseWebSearch: true,
			UseLLM:       true,
			Priority:     10,
		},
	}
}

// DefaultRule covers categories with no explicit rule, including unknown.
// Routing must never fail; worst case is web search plus LLM synthesis.
func DefaultRule(category models.Category) models.RoutingRule {
	return models.RoutingRule{
		Category:     category,
		Providers:    []string{"websearch"},
		UseWebSearch: true,
		UseLLM:       true,
		Priority:     0,
	}
}
