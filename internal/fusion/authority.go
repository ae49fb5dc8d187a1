// internal/fusion/authority.go
package fusion

import "query-orchestrator/internal/models"

// DefaultAuthorityWeights ranks providers per category. Structured sources
// outrank web search for the categories they own; web search is never
// authoritative, only corroborating.
func DefaultAuthorityWeights() map[string]map[models.Category]float64 {
	return map[string]map[models.Category]float64{
		"rag": {
			models.CategoryWeather: 1.0,
			models.CategoryTime:    1.0,
			models.CategorySports:  0.9,
			models.CategoryFlights: 0.9,
		},
		"devices": {
			models.CategoryDeviceControl: 1.0,
		},
		"events": {
			models.CategoryEvents: 0.9,
		},
		"news": {
			models.CategoryNews: 0.9,
		},
		"websearch": {},
	}
}

// authority returns the weight of a provider for a category. Unlisted
// pairs get a low non-zero default so web results still rank among
// themselves by confidence.
func authority(weights map[string]map[models.Category]float64, provider string, category models.Category) float64 {
	if byCategory, ok := weights[provider]; ok {
		if w, ok := byCategory[category]; ok {
			return w
		}
	}
	return 0.3
}
