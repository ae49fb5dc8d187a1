// internal/models/intent.go
package models

// Category is an enumerated intent tag.
type Category string

const (
	CategoryWeather       Category = "weather"
	CategoryTime          Category = "time"
	CategorySports        Category = "sports"
	CategoryEvents        Category = "events"
	CategoryNews          Category = "news"
	CategoryDeviceControl Category = "device_control"
	CategoryLocation      Category = "location"
	CategoryFlights       Category = "flights"
	CategoryGeneral       Category = "general"
	CategoryUnknown       Category = "unknown"
)

// IntentClassification is the analyzer's verdict for one SubQuery.
type IntentClassification struct {
	SubQuery        SubQuery               `json:"subQuery"`
	Category        Category               `json:"category"`
	Confidence      float64                `json:"confidence"` // in [0,1]
	Entities        map[string]interface{} `json:"entities,omitempty"`
	RequiresLLM     bool                   `json:"requiresLlm"`
	MatchedPatterns []string               `json:"matchedPatterns,omitempty"`
}

// RoutingRule maps a category to its retrieval sources.
type RoutingRule struct {
	Category     Category `json:"category"`
	Providers    []string `json:"providers"` // ordered provider ids
	UseRAG       bool     `json:"useRag"`
	RAGEndpoint  string   `json:"ragEndpoint,omitempty"`
	UseWebSearch bool     `json:"useWebSearch"`
	UseLLM       bool     `json:"useLlm"`
	Priority     int      `json:"priority"`
}
