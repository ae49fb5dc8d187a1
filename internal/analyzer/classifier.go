// internal/analyzer/classifier.go
package analyzer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

var quantityRe = regexp.MustCompile(`\b\d+(\.\d+)?\b`)

// Classifier scores sub-queries against weighted keyword patterns.
type Classifier struct {
	categories        []models.CategoryDef // sorted by priority desc, registration order within
	complexIndicators []string
	confidenceFloor   float64
	logger            logger.Logger
}

func NewClassifier(categories []models.CategoryDef, complexIndicators []string, confidenceFloor float64, log logger.Logger) *Classifier {
	if confidenceFloor <= 0 {
		confidenceFloor = 0.6
	}

	// Stable sort keeps registration order as the final tie-break.
	sorted := make([]models.CategoryDef, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	return &Classifier{
		categories:        sorted,
		complexIndicators: complexIndicators,
		confidenceFloor:   confidenceFloor,
		logger:            log,
	}
}

// Classify scores every category against the normalized text and returns
// the winner. Ties are deterministic: higher priority wins, then whichever
// category was registered first. A query no category claims comes back as
// CategoryUnknown with RequiresLLM set.
func (c *Classifier) Classify(sub models.SubQuery) models.IntentClassification {
	text := models.Normalize(sub.Text)

	var (
		best      *models.CategoryDef
		bestScore float64
		matched   []string
	)

	for i := range c.categories {
		def := &c.categories[i]
		score, patterns := c.score(text, def)
		// Thresholds are inclusive minimums: a score exactly at the
		// threshold qualifies.
		if score < def.Threshold {
			continue
		}
		// Strict greater-than: earlier (higher-priority) entries keep ties.
		if best == nil || score > bestScore {
			best = def
			bestScore = score
			matched = patterns
		}
	}

	if best == nil {
		return models.IntentClassification{
			SubQuery:    sub,
			Category:    models.CategoryUnknown,
			Confidence:  0,
			RequiresLLM: true,
		}
	}

	confidence := 0.5
	if max := best.MaxScore(); max > 0 {
		confidence = 0.5 + 0.5*(bestScore/max)
	}
	if confidence > best.Ceiling {
		confidence = best.Ceiling
	}

	cls := models.IntentClassification{
		SubQuery:        sub,
		Category:        best.Category,
		Confidence:      confidence,
		Entities:        c.extractEntities(text, best),
		MatchedPatterns: matched,
	}
	cls.RequiresLLM = c.requiresLLM(text, best, confidence)

	c.logger.Debug("classified sub-query", map[string]interface{}{
		"position":    sub.Position,
		"category":    string(cls.Category),
		"confidence":  cls.Confidence,
		"requiresLlm": cls.RequiresLLM,
	})
	return cls
}

func (c *Classifier) score(text string, def *models.CategoryDef) (float64, []string) {
	var (
		score   float64
		matched []string
	)
	for _, p := range def.Patterns {
		if strings.Contains(text, p.Text) {
			score += p.Weight
			matched = append(matched, p.Text)
		}
	}
	return score, matched
}

func (c *Classifier) requiresLLM(text string, def *models.CategoryDef, confidence float64) bool {
	if def.LLMRequired {
		return true
	}
	if confidence < c.confidenceFloor {
		return true
	}
	for _, ind := range c.complexIndicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}

// extractEntities is deterministic per category: a numeric regex for
// quantities plus substring lookup against the category's lexicons.
func (c *Classifier) extractEntities(text string, def *models.CategoryDef) map[string]interface{} {
	entities := make(map[string]interface{})

	if m := quantityRe.FindString(text); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			entities["quantity"] = f
		}
	}

	for name, terms := range def.Lexicons {
		var found []string
		for _, term := range terms {
			if strings.Contains(text, term) {
				found = append(found, term)
			}
		}
		switch len(found) {
		case 0:
		case 1:
			entities[name] = found[0]
		default:
			entities[name] = found
		}
	}

	if len(entities) == 0 {
		return nil
	}
	return entities
}
