// internal/analyzer/analyzer_test.go
package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	return New(0.6, 3, logger.NewTestLogger(t))
}

// ==========================
// Splitter Tests
// ==========================

func TestSplitter_SplitsOnConjunction(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Split("what's the weather and what time is it")

	assert.Equal(t, []string{"what's the weather", "what time is it"}, got)
}

func TestSplitter_CompoundNounSuppressesSplit(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []string{
		"is there thunder and lightning in the forecast",
		"play some rock and roll music for me",
		"find a bed and breakfast near the coast",
	}
	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			got := a.Split(query)
			assert.Equal(t, 1, len(got), "compound noun must not be split")
			assert.Equal(t, models.Normalize(query), got[0])
		})
	}
}

func TestSplitter_MultiEntityDeviceSuppressesSplit(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []string{
		"turn on the lights in the living room and the kitchen light",
		"turn off the bedroom and the bathroom lights please now",
	}
	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			got := a.Split(query)
			assert.Equal(t, 1, len(got), "multi-entity command must not be split")
		})
	}
}

func TestSplitter_ShortFragmentsFallBack(t *testing.T) {
	a := newTestAnalyzer(t)

	// "ok" fragment is below the minimum word count
	got := a.Split("tell me the weather forecast and ok")
	assert.Equal(t, 1, len(got))
}

func TestSplitter_NoConjunctionReturnsOriginal(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Split("What's the weather in Berlin?")
	assert.Equal(t, []string{"what's the weather in berlin?"}, got)
}

func TestSplitter_MultipleConjunctions(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Split("what's the weather today then what time is it also what's in the news")
	assert.Equal(t, 3, len(got))
	assert.Equal(t, "what's the weather today", got[0])
	assert.Equal(t, "what time is it", got[1])
	assert.Equal(t, "what's in the news", got[2])
}

// ==========================
// Classifier Tests
// ==========================

func TestClassifier_Categories(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name  string
		query string
		want  models.Category
	}{
		{"weather", "what's the weather forecast for tomorrow", models.CategoryWeather},
		{"time", "what time is it right now", models.CategoryTime},
		{"sports", "what was the score of the match", models.CategorySports},
		{"device", "turn on the kitchen light", models.CategoryDeviceControl},
		{"events", "any concert tickets this weekend", models.CategoryEvents},
		{"news", "show me the breaking news headline", models.CategoryNews},
		{"flights", "is the flight from madrid delayed at the airport", models.CategoryFlights},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Classify(models.SubQuery{Text: tt.query})
			assert.Equal(t, tt.want, got.Category)
			assert.GreaterOrEqual(t, got.Confidence, 0.5)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestClassifier_UnknownQuery(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Classify(models.SubQuery{Text: "qwerty asdf zxcv"})

	assert.Equal(t, models.CategoryUnknown, got.Category)
	assert.True(t, got.RequiresLLM)
	assert.Zero(t, got.Confidence)
}

func TestClassifier_ComplexIndicatorForcesLLM(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Classify(models.SubQuery{Text: "explain the weather forecast for tomorrow"})

	assert.Equal(t, models.CategoryWeather, got.Category)
	assert.True(t, got.RequiresLLM)
}

func TestClassifier_EntityExtraction(t *testing.T) {
	a := newTestAnalyzer(t)

	t.Run("room entity", func(t *testing.T) {
		got := a.Classify(models.SubQuery{Text: "turn off the living room light"})
		assert.Equal(t, "living room", got.Entities["room"])
	})

	t.Run("quantity entity", func(t *testing.T) {
		got := a.Classify(models.SubQuery{Text: "set temperature thermostat to 21 degrees"})
		assert.Equal(t, 21.0, got.Entities["quantity"])
	})

	t.Run("team entity", func(t *testing.T) {
		got := a.Classify(models.SubQuery{Text: "what was the score of the real madrid game"})
		assert.Equal(t, "real madrid", got.Entities["team"])
	})
}

func TestClassifier_ConfidenceClampedToCeiling(t *testing.T) {
	a := newTestAnalyzer(t)

	// Matches nearly every weather pattern; confidence must not exceed the ceiling.
	got := a.Classify(models.SubQuery{Text: "weather forecast temperature rain snow sunny humidity"})

	assert.Equal(t, models.CategoryWeather, got.Category)
	assert.LessOrEqual(t, got.Confidence, 0.95)
}

func TestClassifier_TieBreakIsDeterministic(t *testing.T) {
	log := logger.NewTestLogger(t)
	categories := []models.CategoryDef{
		{Category: "first", Priority: 50, Threshold: 1.0, Ceiling: 0.9,
			Patterns: []models.WeightedPattern{{Text: "token", Weight: 1.0}}},
		{Category: "second", Priority: 50, Threshold: 1.0, Ceiling: 0.9,
			Patterns: []models.WeightedPattern{{Text: "token", Weight: 1.0}}},
		{Category: "third", Priority: 90, Threshold: 1.0, Ceiling: 0.9,
			Patterns: []models.WeightedPattern{{Text: "other", Weight: 1.0}}},
	}
	c := NewClassifier(categories, nil, 0.6, log)

	for i := 0; i < 10; i++ {
		got := c.Classify(models.SubQuery{Text: "a token query"})
		assert.Equal(t, models.Category("first"), got.Category, "equal scores must resolve by registration order")
	}
}

func TestClassifier_ScoreAtThresholdQualifies(t *testing.T) {
	log := logger.NewTestLogger(t)
	categories := []models.CategoryDef{
		{Category: "exact", Priority: 50, Threshold: 1.5, Ceiling: 0.9,
			Patterns: []models.WeightedPattern{{Text: "alpha", Weight: 1.0}, {Text: "beta", Weight: 0.5}}},
	}
	c := NewClassifier(categories, nil, 0.6, log)

	// score 1.5 against threshold 1.5: thresholds are inclusive minimums
	got := c.Classify(models.SubQuery{Text: "alpha beta"})
	assert.Equal(t, models.Category("exact"), got.Category)
}

// ==========================
// ClassifyMulti Tests
// ==========================

func TestClassifyMulti_PreservesOrder(t *testing.T) {
	a := newTestAnalyzer(t)
	q := models.NewQuery("what's the weather today and what time is it", "", nil)

	got := a.ClassifyMulti(q)

	assert.Equal(t, 2, len(got))
	assert.Equal(t, 0, got[0].SubQuery.Position)
	assert.Equal(t, 1, got[1].SubQuery.Position)
	assert.Equal(t, models.CategoryWeather, got[0].Category)
	assert.Equal(t, models.CategoryTime, got[1].Category)
	assert.Equal(t, q.ID, got[0].SubQuery.QueryID)
}

func TestClassifyMulti_SingleQuery(t *testing.T) {
	a := newTestAnalyzer(t)
	q := models.NewQuery("what's the weather in Berlin?", "", nil)

	got := a.ClassifyMulti(q)

	assert.Equal(t, 1, len(got))
	assert.Equal(t, models.CategoryWeather, got[0].Category)
}

func TestAnalyzer_ApplyConfigSwapsPatterns(t *testing.T) {
	a := newTestAnalyzer(t)

	a.ApplyConfig(models.RemoteConfig{
		Categories: []models.CategoryDef{
			{Category: "custom", Priority: 100, Threshold: 1.0, Ceiling: 0.9,
				Patterns: []models.WeightedPattern{{Text: "frobnicate", Weight: 2.0}}},
		},
	})

	got := a.Classify(models.SubQuery{Text: "please frobnicate the widget"})
	assert.Equal(t, models.Category("custom"), got.Category)

	// Splitter defaults survive a partial config.
	assert.Equal(t, 1, len(a.Split("thunder and lightning today")))
}
