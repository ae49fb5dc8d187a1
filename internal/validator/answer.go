// internal/validator/answer.go
package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/common/metrics"
	"query-orchestrator/internal/genai"
	"query-orchestrator/internal/models"
)

// Generator is the corrective-regeneration seam; *genai.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (string, error)
}

var (
	digitRe   = regexp.MustCompile(`\d`)
	timeRe    = regexp.MustCompile(`\b(\d{1,2}[:.]\d{2}|\d{1,2}\s?(am|pm)|o'clock|noon|midnight|morning|afternoon|evening|today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	placeRe   = regexp.MustCompile(`\b(street|st\.|avenue|ave\.|road|rd\.|boulevard|square|km|kilometer|mile|meter|minutes? (away|walk|drive)|north|south|east|west|address)\b`)
	weatherRe = regexp.MustCompile(`\b(sunny|cloudy|rain|snow|storm|clear|fog|wind|degrees?|celsius|fahrenheit|humidity)\b`)
)

// mustContainRules lists, per category, the tokens a grounded answer must
// carry. A score answer without a digit or a time answer without a time
// token is the classic hallucination shape this layer catches.
var mustContainRules = map[models.Category][]struct {
	name  string
	check func(string) bool
}{
	models.CategorySports: {
		{"missing_score_digit", func(s string) bool { return digitRe.MatchString(s) }},
	},
	models.CategoryTime: {
		{"missing_time_token", func(s string) bool { return timeRe.MatchString(s) }},
	},
	models.CategoryLocation: {
		{"missing_place_token", func(s string) bool { return placeRe.MatchString(s) }},
	},
	models.CategoryWeather: {
		{"missing_weather_token", func(s string) bool { return weatherRe.MatchString(s) }},
	},
	models.CategoryFlights: {
		{"missing_flight_detail", func(s string) bool { return digitRe.MatchString(s) || timeRe.MatchString(s) }},
	},
}

// AnswerValidator is the two-layer anti-hallucination check on synthesized
// text. Layer 1 applies per-category must-contain rules with exactly one
// corrective regeneration. Layer 2, opt-in per call, regenerates
// independently and cross-checks the two answers.
type AnswerValidator struct {
	generator           Generator
	numericWeight       float64
	lexicalWeight       float64
	crossCheckThreshold float64
	logger              logger.Logger
}

func NewAnswerValidator(generator Generator, numericWeight, lexicalWeight, crossCheckThreshold float64, log logger.Logger) *AnswerValidator {
	if numericWeight <= 0 {
		numericWeight = 0.6
	}
	if lexicalWeight <= 0 {
		lexicalWeight = 0.4
	}
	if crossCheckThreshold <= 0 {
		crossCheckThreshold = 0.3
	}
	return &AnswerValidator{
		generator:           generator,
		numericWeight:       numericWeight,
		lexicalWeight:       lexicalWeight,
		crossCheckThreshold: crossCheckThreshold,
		logger:              log.With(map[string]interface{}{"stage": "validator"}),
	}
}

// Validate runs layer 1 and, when urgent is set, layer 2. The returned
// outcome always carries the text the caller should use in CorrectedText
// when it differs from the input answer.
func (v *AnswerValidator) Validate(ctx context.Context, category models.Category, query, answer string, urgent bool) models.ValidationOutcome {
	outcome := v.validateLayer1(ctx, category, query, answer)
	if !outcome.Passed {
		return outcome
	}

	if urgent {
		accepted := answer
		if outcome.CorrectedText != "" {
			accepted = outcome.CorrectedText
		}
		return v.crossCheck(ctx, category, query, accepted, outcome)
	}
	return outcome
}

func (v *AnswerValidator) validateLayer1(ctx context.Context, category models.Category, query, answer string) models.ValidationOutcome {
	violations := v.violations(category, answer)
	if len(violations) == 0 {
		metrics.ValidationOutcomes.WithLabelValues("layer1", "pass").Inc()
		return models.ValidationOutcome{Passed: true, Confidence: 1.0}
	}

	v.logger.Warn("answer failed must-contain rules, regenerating once", map[string]interface{}{
		"category":   string(category),
		"violations": violations,
	})

	corrected, err := v.generator.Generate(ctx, genai.Request{
		Prompt: fmt.Sprintf(
			"Answer the question %q again. The previous answer was rejected for: %s. Include the missing concrete detail.",
			query, strings.Join(violations, ", ")),
	})
	if err == nil {
		if redo := v.violations(category, corrected); len(redo) == 0 {
			metrics.ValidationOutcomes.WithLabelValues("layer1", "corrected").Inc()
			return models.ValidationOutcome{
				Passed:        true,
				Violations:    violations,
				Confidence:    0.8,
				CorrectedText: corrected,
			}
		}
	}

	metrics.ValidationOutcomes.WithLabelValues("layer1", "fail").Inc()
	return models.ValidationOutcome{
		Passed:     false,
		Violations: violations,
		Confidence: 0,
	}
}

func (v *AnswerValidator) violations(category models.Category, answer string) []string {
	text := models.Normalize(answer)
	var out []string
	for _, rule := range mustContainRules[category] {
		if !rule.check(text) {
			out = append(out, rule.name)
		}
	}
	return out
}
