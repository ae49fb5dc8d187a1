// internal/search/provider.go
package search

import (
	"context"

	"query-orchestrator/internal/models"
)

// Provider is one retrieval source. Implementations must honor ctx
// cancellation and return at most limit results.
type Provider interface {
	ID() string
	Search(ctx context.Context, cls models.IntentClassification, limit int) ([]models.SearchResult, error)
}
