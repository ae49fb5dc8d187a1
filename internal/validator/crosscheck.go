// internal/validator/crosscheck.go
package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"query-orchestrator/internal/common/metrics"
	"query-orchestrator/internal/genai"
	"query-orchestrator/internal/models"
)

var numberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// crossCheck regenerates the answer independently and scores agreement.
// Two answers to one factual question that disagree on their numbers are
// the second hallucination shape this layer catches. Below the threshold
// the independent answer wins and the outcome is flagged inconsistent.
func (v *AnswerValidator) crossCheck(ctx context.Context, category models.Category, query, answer string, outcome models.ValidationOutcome) models.ValidationOutcome {
	independent, err := v.generator.Generate(ctx, genai.Request{
		Prompt:      fmt.Sprintf("Answer this question concisely and factually: %s", query),
		Temperature: 0.1,
	})
	if err != nil {
		// Cross-check is best-effort; the layer-1 verdict stands.
		v.logger.Warn("cross-check regeneration failed", map[string]interface{}{
			"category": string(category),
			"error":    err.Error(),
		})
		metrics.ValidationOutcomes.WithLabelValues("layer2", "skipped").Inc()
		return outcome
	}

	score := v.agreement(answer, independent)
	outcome.Confidence = score

	if score < v.crossCheckThreshold {
		metrics.ValidationOutcomes.WithLabelValues("layer2", "inconsistent").Inc()
		v.logger.Warn("answers disagree, preferring independent regeneration", map[string]interface{}{
			"category": string(category),
			"score":    score,
		})
		outcome.Inconsistent = true
		outcome.CorrectedText = independent
		return outcome
	}

	metrics.ValidationOutcomes.WithLabelValues("layer2", "consistent").Inc()
	return outcome
}

// agreement = numericWeight x numeric-token overlap + lexicalWeight x
// lexical overlap. Both components are Jaccard over token sets.
func (v *AnswerValidator) agreement(a, b string) float64 {
	numeric := jaccard(numberRe.FindAllString(a, -1), numberRe.FindAllString(b, -1))
	lexical := jaccard(strings.Fields(models.Normalize(a)), strings.Fields(models.Normalize(b)))
	return v.numericWeight*numeric + v.lexicalWeight*lexical
}

// jaccard treats two empty sets as full agreement: answers without numbers
// cannot disagree numerically.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(a))
	for _, tok := range a {
		setA[tok] = true
	}
	setB := make(map[string]bool, len(b))
	for _, tok := range b {
		setB[tok] = true
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
