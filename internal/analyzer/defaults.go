// internal/analyzer/defaults.go
package analyzer

import "query-orchestrator/internal/models"

// DefaultCompoundNouns are phrases that contain a conjunction token but are
// single concepts; their presence suppresses splitting entirely.
func DefaultCompoundNouns() []string {
	return []string{
		"thunder and lightning",
		"rock and roll",
		"black and white",
		"salt and pepper",
		"bed and breakfast",
		"research and development",
		"terms and conditions",
		"now and then",
	}
}

// DefaultMultiEntityPatterns are regexes for queries where "and" joins two
// entities of one command rather than two separate requests.
func DefaultMultiEntityPatterns() []string {
	rooms := `(living room|bedroom|kitchen|bathroom|garage|office|hallway)`
	return []string{
		rooms + ` and (the )?` + rooms,
		`turn (on|off) .+ and .+ light`,
		`(lights?|lamps?) .* and .* (lights?|lamps?)`,
	}
}

// DefaultComplexIndicators are tokens whose presence forces LLM handling
// regardless of classification confidence.
func DefaultComplexIndicators() []string {
	return []string{
		"explain", "why", "how does", "compare", "recommend",
		"suggest", "difference between", "what if", "opinion",
	}
}

// DefaultCategories is the compiled-in classification table used when the
// configuration service is unavailable.
func DefaultCategories() []models.CategoryDef {
	return []models.CategoryDef{
		{
			Category:  models.CategoryDeviceControl,
			Priority:  100,
			Threshold: 1.0,
			Ceiling:   0.95,
			Patterns: []models.WeightedPattern{
				{Text: "turn on", Weight: 2.0},
				{Text: "turn off", Weight: 2.0},
				{Text: "switch", Weight: 1.0},
				{Text: "dim", Weight: 1.5},
				{Text: "light", Weight: 1.0},
				{Text: "thermostat", Weight: 2.0},
				{Text: "set temperature", Weight: 2.0},
				{Text: "lock", Weight: 1.0},
			},
			Lexicons: map[string][]string{
				"room":   {"living room", "bedroom", "kitchen", "bathroom", "garage", "office", "hallway"},
				"device": {"light", "lamp", "thermostat", "tv", "speaker", "lock", "fan", "blinds"},
			},
		},
		{
			Category:  models.CategoryWeather,
			Priority:  90,
			Threshold: 1.0,
			Ceiling:   0.95,
			Patterns: []models.WeightedPattern{
				{Text: "weather", Weight: 2.0},
				{Text: "temperature", Weight: 1.5},
				{Text: "forecast", Weight: 2.0},
				{Text: "rain", Weight: 1.0},
				{Text: "snow", Weight: 1.0},
				{Text: "sunny", Weight: 1.0},
				{Text: "humidity", Weight: 1.5},
			},
			Lexicons: map[string][]string{
				"location": {"berlin", "london", "paris", "new york", "tokyo", "madrid", "rome"},
			},
		},
		{
			Category:  models.CategorySports,
			Priority:  80,
			Threshold: 1.0,
			Ceiling:   0.9,
			Patterns: []models.WeightedPattern{
				{Text: "score", Weight: 1.5},
				{Text: "game", Weight: 1.0},
				{Text: "match", Weight: 1.0},
				{Text: "play", Weight: 0.5},
				{Text: "won", Weight: 1.0},
				{Text: "league", Weight: 1.0},
				{Text: "standings", Weight: 1.5},
			},
			Lexicons: map[string][]string{
				"team": {"real madrid", "barcelona", "bayern", "liverpool", "arsenal", "juventus", "dortmund"},
			},
		},
		{
			Category:  models.CategoryEvents,
			Priority:  70,
			Threshold: 1.0,
			Ceiling:   0.9,
			Patterns: []models.WeightedPattern{
				{Text: "event", Weight: 1.5},
				{Text: "concert", Weight: 2.0},
				{Text: "tickets", Weight: 1.5},
				{Text: "festival", Weight: 1.5},
				{Text: "happening", Weight: 1.0},
				{Text: "this weekend", Weight: 1.0},
			},
		},
		{
			Category:  models.CategoryFlights,
			Priority:  70,
			Threshold: 1.5,
			Ceiling:   0.9,
			Patterns: []models.WeightedPattern{
				{Text: "flight", Weight: 2.0},
				{Text: "departure", Weight: 1.5},
				{Text: "arrival", Weight: 1.5},
				{Text: "airport", Weight: 1.0},
				{Text: "delayed", Weight: 1.0},
			},
		},
		{
			Category:  models.CategoryNews,
			Priority:  60,
			Threshold: 1.0,
			Ceiling:   0.85,
			Patterns: []models.WeightedPattern{
				{Text: "news", Weight: 2.0},
				{Text: "headline", Weight: 1.5},
				{Text: "latest", Weight: 0.5},
				{Text: "breaking", Weight: 1.5},
			},
		},
		{
			Category:  models.CategoryTime,
			Priority:  50,
			Threshold: 1.0,
			Ceiling:   0.95,
			Patterns: []models.WeightedPattern{
				{Text: "what time", Weight: 2.0},
				{Text: "time is it", Weight: 2.0},
				{Text: "date today", Weight: 1.5},
				{Text: "what day", Weight: 1.5},
			},
		},
		{
			Category:  models.CategoryLocation,
			Priority:  40,
			Threshold: 1.0,
			Ceiling:   0.9,
			Patterns: []models.WeightedPattern{
				{Text: "where is", Weight: 2.0},
				{Text: "nearest", Weight: 1.5},
				{Text: "directions", Weight: 2.0},
				{Text: "how far", Weight: 1.5},
				{Text: "address", Weight: 1.5},
			},
		},
		{
			Category:  models.CategoryGeneral,
			Priority:  10,
			Threshold: 0.5,
			Ceiling:   0.7,
			Patterns: []models.WeightedPattern{
				{Text: "what is", Weight: 0.5},
				{Text: "who is", Weight: 0.5},
				{Text: "tell me", Weight: 0.5},
			},
		},
	}
}
