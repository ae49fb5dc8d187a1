// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"query-orchestrator/internal/analyzer"
	"query-orchestrator/internal/cache"
	"query-orchestrator/internal/chain"
	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/common/metrics"
	"query-orchestrator/internal/common/observability"
	"query-orchestrator/internal/fusion"
	"query-orchestrator/internal/genai"
	"query-orchestrator/internal/models"
	"query-orchestrator/internal/router"
	"query-orchestrator/internal/search"
	"query-orchestrator/internal/validator"
)

// FallbackAnswer is the total-failure response. Every path out of
// Orchestrate produces an answer; the pipeline never errors to the caller.
const FallbackAnswer = "Sorry, I couldn't find anything on that."

// Generator is the synthesis seam shared with the validator.
type Generator = validator.Generator

// Options carries the orchestration tuning values.
type Options struct {
	MinAnswerLength int
	ResultLimit     int // max fused results fed into synthesis
}

// Orchestrator wires analyzer, router, search, fusion, validation, merge
// and cache into the caller-facing pipeline.
type Orchestrator struct {
	analyzer  *analyzer.Analyzer
	router    *router.Router
	engine    *search.Engine
	fusion    *fusion.Fusion
	validator *validator.AnswerValidator
	generator Generator
	cache     *cache.ResponseCache
	obs       *observability.Observability
	opts      Options
	logger    logger.Logger
}

func New(
	a *analyzer.Analyzer,
	r *router.Router,
	e *search.Engine,
	f *fusion.Fusion,
	v *validator.AnswerValidator,
	g Generator,
	c *cache.ResponseCache,
	obs *observability.Observability,
	opts Options,
	log logger.Logger,
) *Orchestrator {
	if opts.MinAnswerLength <= 0 {
		opts.MinAnswerLength = 20
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = 3
	}
	if obs == nil {
		obs = &observability.Observability{}
	}
	return &Orchestrator{
		analyzer:  a,
		router:    r,
		engine:    e,
		fusion:    f,
		validator: v,
		generator: g,
		cache:     c,
		obs:       obs,
		opts:      opts,
		logger:    log.With(map[string]interface{}{"stage": "orchestrator"}),
	}
}

// ApplyConfig distributes a remote configuration snapshot to every
// consumer. Called by the refresh loop; each consumer swaps atomically.
func (o *Orchestrator) ApplyConfig(rc models.RemoteConfig) {
	o.analyzer.ApplyConfig(rc)
	o.router.ApplyConfig(rc)
	o.fusion.ApplyConfig(rc)
	o.cache.ApplyConfig(rc)
}

// Orchestrate answers one utterance. It never returns an error; every
// failure degrades to the generic fallback answer.
func (o *Orchestrator) Orchestrate(ctx context.Context, rawQuery, sessionID string, session map[string]interface{}) models.Response {
	start := time.Now()
	q := models.NewQuery(rawQuery, sessionID, session)
	latency := make(map[string]int64)

	resp := o.run(ctx, q, latency)
	resp.RequestID = q.ID
	latency["total"] = time.Since(start).Milliseconds()
	resp.StageLatency = latency

	outcome := "answered"
	switch {
	case resp.Cached:
		outcome = "cached"
	case resp.Answer == FallbackAnswer:
		outcome = "fallback"
	case resp.Escalated:
		outcome = "escalated"
	}
	metrics.QueriesProcessed.WithLabelValues(string(resp.Category), outcome).Inc()
	o.obs.RecordQueryProcessed(ctx, string(resp.Category), outcome)
	o.obs.RecordQueryDuration(ctx, time.Since(start), outcome)

	o.logger.Info("query processed", map[string]interface{}{
		"requestId": q.ID,
		"category":  string(resp.Category),
		"outcome":   outcome,
		"totalMs":   latency["total"],
	})
	return resp
}

func (o *Orchestrator) run(ctx context.Context, q models.Query, latency map[string]int64) models.Response {
	ctx, endSpan := o.obs.StartSpan(ctx, "analyze")
	chainCls := o.stageClassify(ctx, q, latency)
	endSpan()

	category := primaryCategory(chainCls)

	// Cache lookup by (primary category, normalized query).
	cacheStart := time.Now()
	if cached, found := o.cache.Get(ctx, category, q.Normalized); found {
		latency["cache"] = time.Since(cacheStart).Milliseconds()
		return cached
	}
	latency["cache"] = time.Since(cacheStart).Milliseconds()

	ctx, endSpan = o.obs.StartSpan(ctx, "chain")
	chainStart := time.Now()
	urgent, _ := q.Session["urgent"].(bool)
	collector := &citationCollector{orchestrator: o, urgent: urgent}
	processor := chain.NewProcessor(collector, o.opts.MinAnswerLength, o.logger)
	result := processor.Process(ctx, chainCls)
	latency["chain"] = time.Since(chainStart).Milliseconds()
	latency["validate"] = collector.validateMs
	metrics.StageDuration.WithLabelValues("chain").Observe(time.Since(chainStart).Seconds())
	endSpan()

	if result.Escalated {
		return o.escalate(ctx, q, category, latency)
	}

	merged, escalate := chain.Merge(result.Answers)
	if escalate {
		return o.escalate(ctx, q, category, latency)
	}
	if merged == "" {
		return models.Response{
			Answer:     FallbackAnswer,
			Category:   category,
			Validation: aggregateValidation(collector.outcomes),
		}
	}

	resp := models.Response{
		Answer:     merged,
		Category:   category,
		Confidence: chainConfidence(chainCls),
		Citations:  collector.citations,
		Validation: aggregateValidation(collector.outcomes),
	}

	if resp.Validation != nil && resp.Validation.Passed {
		o.cache.Set(ctx, category, q.Normalized, resp)
	}
	return resp
}

func (o *Orchestrator) stageClassify(ctx context.Context, q models.Query, latency map[string]int64) []models.IntentClassification {
	start := time.Now()
	chainCls := o.analyzer.ClassifyMulti(q)
	latency["analyze"] = time.Since(start).Milliseconds()
	metrics.StageDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	return chainCls
}

// escalate sends the full original query to the generation collaborator.
func (o *Orchestrator) escalate(ctx context.Context, q models.Query, category models.Category, latency map[string]int64) models.Response {
	start := time.Now()
	defer func() {
		latency["escalate"] = time.Since(start).Milliseconds()
		metrics.StageDuration.WithLabelValues("escalate").Observe(time.Since(start).Seconds())
	}()

	answer, err := o.generator.Generate(ctx, genai.Request{
		Prompt:  q.RawText,
		Context: map[string]interface{}{"session": q.Session},
	})
	if err != nil || strings.TrimSpace(answer) == "" {
		o.logger.Warn("escalation synthesis failed", map[string]interface{}{
			"requestId": q.ID,
			"error":     fmt.Sprintf("%v", err),
		})
		return models.Response{Answer: FallbackAnswer, Category: category, Escalated: true}
	}

	return models.Response{
		Answer:    answer,
		Category:  category,
		Escalated: true,
		// Escalated answers skip retrieval, so confidence is the floor.
		Confidence: 0.5,
	}
}

// citationCollector is the per-request chain dispatcher. It runs route,
// retrieval, fusion, synthesis and validation for one sub-intent and
// accumulates the citations and validation outcomes the final response
// reports.
type citationCollector struct {
	orchestrator *Orchestrator
	urgent       bool
	citations    []string
	outcomes     []models.ValidationOutcome
	validateMs   int64
}

func (c *citationCollector) Dispatch(ctx context.Context, cls models.IntentClassification) (string, error) {
	o := c.orchestrator

	rule := o.router.Route(cls)

	searchStart := time.Now()
	results := o.engine.Search(ctx, cls, rule)
	metrics.StageDuration.WithLabelValues("search").Observe(time.Since(searchStart).Seconds())

	fuseStart := time.Now()
	fused := o.fusion.Fuse(cls.Category, results)
	metrics.StageDuration.WithLabelValues("fusion").Observe(time.Since(fuseStart).Seconds())

	if len(fused) == 0 {
		return "", nil
	}
	if len(fused) > o.opts.ResultLimit {
		fused = fused[:o.opts.ResultLimit]
	}

	var answer string
	if rule.UseLLM {
		var err error
		answer, err = c.synthesize(ctx, cls, fused)
		if err != nil {
			return "", err
		}
	} else {
		// Structured answers (device state, time) are used as retrieved.
		answer = fused[0].Snippet
	}

	// Each sub-answer is checked against its own category's rules before
	// it reaches the merger. A failing fragment drops out as a failed
	// step; the rest of the chain survives.
	validateStart := time.Now()
	outcome := o.validator.Validate(ctx, cls.Category, cls.SubQuery.Text, answer, c.urgent)
	c.validateMs += time.Since(validateStart).Milliseconds()
	metrics.StageDuration.WithLabelValues("validate").Observe(time.Since(validateStart).Seconds())
	c.outcomes = append(c.outcomes, outcome)

	if !outcome.Passed {
		return "", errors.NewValidationFailedError(string(cls.Category), outcome.Violations)
	}
	if outcome.CorrectedText != "" {
		answer = outcome.CorrectedText
	}

	for _, f := range fused {
		if f.URL != "" {
			c.citations = append(c.citations, f.URL)
		}
	}
	return answer, nil
}

func (c *citationCollector) synthesize(ctx context.Context, cls models.IntentClassification, fused []models.FusedResult) (string, error) {
	var b strings.Builder
	for i, f := range fused {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, f.Title, f.Snippet)
	}

	return c.orchestrator.generator.Generate(ctx, genai.Request{
		Prompt: fmt.Sprintf(
			"Answer the question %q using only the sources below. Be concise and concrete.\n\n%s",
			cls.SubQuery.Text, b.String()),
		Context: map[string]interface{}{
			"category": string(cls.Category),
			"entities": cls.Entities,
		},
	})
}

// aggregateValidation folds per-sub-intent outcomes into the response
// level report. The merged answer only contains text that passed, so one
// surviving sub-answer makes the aggregate pass; violations from dropped
// fragments are still reported.
func aggregateValidation(outcomes []models.ValidationOutcome) *models.ValidationOutcome {
	if len(outcomes) == 0 {
		return nil
	}
	agg := models.ValidationOutcome{Confidence: 1.0}
	for _, o := range outcomes {
		agg.Violations = append(agg.Violations, o.Violations...)
		if o.Inconsistent {
			agg.Inconsistent = true
		}
		if o.Passed {
			agg.Passed = true
			if o.Confidence < agg.Confidence {
				agg.Confidence = o.Confidence
			}
		}
	}
	if !agg.Passed {
		agg.Confidence = 0
	}
	return &agg
}

// primaryCategory is the highest-confidence classification's category;
// the cache key and metrics use it for compound queries too.
func primaryCategory(chainCls []models.IntentClassification) models.Category {
	if len(chainCls) == 0 {
		return models.CategoryUnknown
	}
	best := chainCls[0]
	for _, cls := range chainCls[1:] {
		if cls.Confidence > best.Confidence {
			best = cls
		}
	}
	return best.Category
}

// chainConfidence is the weakest link: the minimum classification
// confidence across the chain.
func chainConfidence(chainCls []models.IntentClassification) float64 {
	if len(chainCls) == 0 {
		return 0
	}
	min := chainCls[0].Confidence
	for _, cls := range chainCls[1:] {
		if cls.Confidence < min {
			min = cls.Confidence
		}
	}
	return min
}
