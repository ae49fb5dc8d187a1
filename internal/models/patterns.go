// internal/models/patterns.go
package models

// WeightedPattern is one keyword/phrase with its contribution to a
// category's match score.
type WeightedPattern struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// CategoryDef is the full classification definition for one category.
// Classification is keyword/pattern matching only; there is no ML here.
type CategoryDef struct {
	Category    Category            `json:"category"`
	Priority    int                 `json:"priority"`  // higher wins ties
	Threshold   float64             `json:"threshold"` // minimum raw score to claim the query
	Ceiling     float64             `json:"ceiling"`   // confidence clamp for this category
	LLMRequired bool                `json:"llmRequired"`
	Patterns    []WeightedPattern   `json:"patterns"`
	Lexicons    map[string][]string `json:"lexicons,omitempty"` // entity name -> known terms
}

// MaxScore is the score when every pattern of the category matches.
func (c CategoryDef) MaxScore() float64 {
	var total float64
	for _, p := range c.Patterns {
		total += p.Weight
	}
	return total
}

// RemoteConfig is the payload served by the configuration collaborator.
// Every field has a compiled-in default; a missing or failing fetch never
// breaks the request path.
type RemoteConfig struct {
	Categories          []CategoryDef                   `json:"categories"`
	CompoundNouns       []string                        `json:"compoundNouns"`
	MultiEntityPatterns []string                        `json:"multiEntityPatterns"` // regex source strings
	ComplexIndicators   []string                        `json:"complexIndicators"`
	RoutingRules        []RoutingRule                   `json:"routingRules"`
	AuthorityWeights    map[string]map[Category]float64 `json:"authorityWeights"` // provider -> category -> weight
	CacheTTLSeconds     map[string]int                  `json:"cacheTtlSeconds"`  // category -> seconds
}
