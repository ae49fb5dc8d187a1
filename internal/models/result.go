// internal/models/result.go
package models

import "time"

// SearchResult is one hit from one provider. Ephemeral, produced per
// retrieval call.
type SearchResult struct {
	Source      string                 `json:"source"` // provider id
	Title       string                 `json:"title"`
	Snippet     string                 `json:"snippet"`
	URL         string                 `json:"url,omitempty"`
	Confidence  float64                `json:"confidence"` // in [0,1]
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	PublishedAt *time.Time             `json:"publishedAt,omitempty"`
}

// FusedResult is the canonical survivor of one duplicate cluster.
type FusedResult struct {
	SearchResult
	FusedConfidence float64  `json:"fusedConfidence"` // in [0,1]
	Sources         []string `json:"sources"`         // contributing provider ids
}

// ValidationOutcome reports the anti-hallucination checks on an answer.
type ValidationOutcome struct {
	Passed        bool     `json:"passed"`
	Violations    []string `json:"violations,omitempty"` // ordered as detected
	Confidence    float64  `json:"confidence"`           // in [0,1]
	CorrectedText string   `json:"correctedText,omitempty"`
	Inconsistent  bool     `json:"inconsistent,omitempty"` // layer-2 disagreement
}

// Response is the caller-facing result of Orchestrate.
type Response struct {
	RequestID    string             `json:"requestId"`
	Answer       string             `json:"answer"`
	Category     Category           `json:"category"`
	Confidence   float64            `json:"confidence"`
	Citations    []string           `json:"citations,omitempty"`
	Validation   *ValidationOutcome `json:"validation,omitempty"`
	StageLatency map[string]int64   `json:"stageLatencyMs"` // stage -> milliseconds
	Escalated    bool               `json:"escalated"`      // answered via full-query LLM escalation
	Cached       bool               `json:"cached"`
}
