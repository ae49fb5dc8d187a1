// internal/models/query.go
package models

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Query is one inbound user utterance. Created per request, discarded after
// the response is produced.
type Query struct {
	ID         string                 `json:"id"`
	SessionID  string                 `json:"sessionId,omitempty"`
	RawText    string                 `json:"rawText"`
	Normalized string                 `json:"normalized"`
	Session    map[string]interface{} `json:"session,omitempty"`
}

// NewQuery builds a Query with a fresh request id and normalized text.
func NewQuery(raw, sessionID string, session map[string]interface{}) Query {
	return Query{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		RawText:    raw,
		Normalized: Normalize(raw),
		Session:    session,
	}
}

// Normalize lower-cases, trims and collapses whitespace.
func Normalize(text string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// SubQuery is one independently classifiable fragment of a compound query.
// Position is 0-based and equals left-to-right appearance in the original
// text; it never changes after the split.
type SubQuery struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
	QueryID  string `json:"queryId"`
}
