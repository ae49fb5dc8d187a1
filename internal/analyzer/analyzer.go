// internal/analyzer/analyzer.go
package analyzer

import (
	"sync/atomic"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// Analyzer is the combined splitter + classifier front of the pipeline.
// Its pattern tables are an immutable snapshot swapped atomically on
// configuration refresh, so in-flight requests never observe a partial
// update.
type Analyzer struct {
	snapshot atomic.Pointer[snapshot]
	floor    float64
	minWords int
	logger   logger.Logger
}

type snapshot struct {
	splitter   *Splitter
	classifier *Classifier
}

func New(floor float64, minWords int, log logger.Logger) *Analyzer {
	a := &Analyzer{
		floor:    floor,
		minWords: minWords,
		logger:   log.With(map[string]interface{}{"stage": "analyzer"}),
	}
	a.install(DefaultCategories(), DefaultCompoundNouns(), DefaultMultiEntityPatterns(), DefaultComplexIndicators())
	return a
}

// ApplyConfig swaps in a new pattern snapshot. Empty remote sections keep
// their compiled-in defaults.
func (a *Analyzer) ApplyConfig(rc models.RemoteConfig) {
	categories := rc.Categories
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	nouns := rc.CompoundNouns
	if len(nouns) == 0 {
		nouns = DefaultCompoundNouns()
	}
	multi := rc.MultiEntityPatterns
	if len(multi) == 0 {
		multi = DefaultMultiEntityPatterns()
	}
	indicators := rc.ComplexIndicators
	if len(indicators) == 0 {
		indicators = DefaultComplexIndicators()
	}
	a.install(categories, nouns, multi, indicators)
}

func (a *Analyzer) install(categories []models.CategoryDef, nouns, multi, indicators []string) {
	a.snapshot.Store(&snapshot{
		splitter:   NewSplitter(nouns, multi, a.minWords, a.logger),
		classifier: NewClassifier(categories, indicators, a.floor, a.logger),
	})
}

// Split exposes the conservative compound-query splitter.
func (a *Analyzer) Split(raw string) []string {
	return a.snapshot.Load().splitter.Split(raw)
}

// Classify classifies a single sub-query.
func (a *Analyzer) Classify(sub models.SubQuery) models.IntentClassification {
	return a.snapshot.Load().classifier.Classify(sub)
}

// ClassifyMulti splits the query and classifies each fragment
// independently. Result order equals left-to-right appearance in the
// source text.
func (a *Analyzer) ClassifyMulti(q models.Query) []models.IntentClassification {
	snap := a.snapshot.Load()

	fragments := snap.splitter.Split(q.RawText)
	out := make([]models.IntentClassification, 0, len(fragments))
	for i, frag := range fragments {
		sub := models.SubQuery{Text: frag, Position: i, QueryID: q.ID}
		out = append(out, snap.classifier.Classify(sub))
	}
	return out
}
