// internal/chain/chain_test.go
package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// scriptedDispatcher maps sub-query text to an outcome.
type scriptedDispatcher struct {
	answers map[string]string
	errs    map[string]error
	panics  map[string]bool
	calls   []string
}

func (d *scriptedDispatcher) Dispatch(ctx context.Context, cls models.IntentClassification) (string, error) {
	text := cls.SubQuery.Text
	d.calls = append(d.calls, text)
	if d.panics[text] {
		panic("handler blew up")
	}
	if err, ok := d.errs[text]; ok {
		return "", err
	}
	return d.answers[text], nil
}

func cls(text string, pos int, category models.Category, requiresLLM bool) models.IntentClassification {
	return models.IntentClassification{
		SubQuery:    models.SubQuery{Text: text, Position: pos},
		Category:    category,
		RequiresLLM: requiresLLM,
	}
}

// ==========================
// Processor Tests
// ==========================

func TestProcessor_OrderedAnswers(t *testing.T) {
	d := &scriptedDispatcher{answers: map[string]string{
		"what's the weather": "It is sunny and 22 degrees in Berlin.",
		"what time is it":    "It is currently 14:32 in Berlin.",
	}}
	p := NewProcessor(d, 20, logger.NewTestLogger(t))

	result := p.Process(context.Background(), []models.IntentClassification{
		cls("what's the weather", 0, models.CategoryWeather, false),
		cls("what time is it", 1, models.CategoryTime, false),
	})

	assert.False(t, result.Escalated)
	require.Len(t, result.Answers, 2)
	assert.Equal(t, "It is sunny and 22 degrees in Berlin.", result.Answers[0])
	assert.Equal(t, "It is currently 14:32 in Berlin.", result.Answers[1])
	assert.Equal(t, []string{"what's the weather", "what time is it"}, d.calls, "strict original order")
}

func TestProcessor_AnyLLMFlagEscalatesWholeChain(t *testing.T) {
	d := &scriptedDispatcher{answers: map[string]string{}}
	p := NewProcessor(d, 20, logger.NewTestLogger(t))

	result := p.Process(context.Background(), []models.IntentClassification{
		cls("what's the weather", 0, models.CategoryWeather, false),
		cls("explain why it rains", 1, models.CategoryWeather, true),
	})

	assert.True(t, result.Escalated)
	assert.Empty(t, result.Answers)
	assert.Empty(t, d.calls, "no sub-intent is dispatched on escalation")
}

func TestProcessor_FailureIsolation(t *testing.T) {
	d := &scriptedDispatcher{
		answers: map[string]string{
			"what time is it": "It is currently 14:32 in Berlin.",
		},
		errs: map[string]error{"what's the weather": assert.AnError},
	}
	p := NewProcessor(d, 20, logger.NewTestLogger(t))

	result := p.Process(context.Background(), []models.IntentClassification{
		cls("what's the weather", 0, models.CategoryWeather, false),
		cls("what time is it", 1, models.CategoryTime, false),
	})

	require.Len(t, result.Steps, 2)
	assert.Equal(t, StateFailed, result.Steps[0].State)
	assert.Error(t, result.Steps[0].Err)
	assert.Equal(t, StateSucceeded, result.Steps[1].State)
	assert.Equal(t, []string{"It is currently 14:32 in Berlin."}, result.Answers)
}

func TestProcessor_PanicIsolation(t *testing.T) {
	d := &scriptedDispatcher{
		answers: map[string]string{
			"what time is it": "It is currently 14:32 in Berlin.",
		},
		panics: map[string]bool{"what's the weather": true},
	}
	p := NewProcessor(d, 20, logger.NewTestLogger(t))

	result := p.Process(context.Background(), []models.IntentClassification{
		cls("what's the weather", 0, models.CategoryWeather, false),
		cls("what time is it", 1, models.CategoryTime, false),
	})

	require.Len(t, result.Steps, 2)
	assert.Equal(t, StateFailed, result.Steps[0].State)
	assert.Equal(t, []string{"It is currently 14:32 in Berlin."}, result.Answers)
}

func TestProcessor_ShortAnswerIsEmpty(t *testing.T) {
	d := &scriptedDispatcher{answers: map[string]string{
		"what's the weather": "ok",
		"what time is it":    "It is currently 14:32 in Berlin.",
	}}
	p := NewProcessor(d, 20, logger.NewTestLogger(t))

	result := p.Process(context.Background(), []models.IntentClassification{
		cls("what's the weather", 0, models.CategoryWeather, false),
		cls("what time is it", 1, models.CategoryTime, false),
	})

	assert.Equal(t, StateEmpty, result.Steps[0].State)
	assert.Equal(t, []string{"It is currently 14:32 in Berlin."}, result.Answers)
}

// ==========================
// Merger Tests
// ==========================

func TestMerge_Table(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    string
	}{
		{"zero", nil, ""},
		{"zero after blanks", []string{"", "  "}, ""},
		{"one verbatim", []string{"It is sunny today."}, "It is sunny today."},
		{"two joined", []string{"It is sunny today.", "It is 14:32."}, "It is sunny today. It is 14:32."},
		{"three numbered", []string{"A answer", "B answer", "C answer"},
			"Here's what I found:\n1. A answer\n2. B answer\n3. C answer"},
		{"blanks dropped before counting", []string{"", "Only one real answer."}, "Only one real answer."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, escalate := Merge(tt.answers)
			assert.False(t, escalate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMerge_SentinelEscalates(t *testing.T) {
	got, escalate := Merge([]string{"A real answer here.", EscalationSentinel})
	assert.True(t, escalate)
	assert.Empty(t, got)
}
