// internal/chain/processor.go
package chain

import (
	"context"
	"fmt"
	"strings"

	"query-orchestrator/internal/common/errors"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// State is the lifecycle of one sub-intent in the chain.
type State string

const (
	StatePending    State = "PENDING"
	StateDispatched State = "DISPATCHED"
	StateSucceeded  State = "SUCCEEDED"
	StateEmpty      State = "EMPTY"
	StateFailed     State = "FAILED"
)

// EscalationSentinel marks a chain that must be answered by sending the
// full original query to the generation collaborator instead of
// per-sub-intent retrieval.
const EscalationSentinel = "__LLM_ESCALATION__"

// Dispatcher resolves one sub-intent to answer text. The orchestrator's
// dispatcher runs route, retrieval, fusion and synthesis; the chain only
// owns ordering, state and failure isolation. Sequential today; the
// interface is the seam for parallel dispatch later.
type Dispatcher interface {
	Dispatch(ctx context.Context, cls models.IntentClassification) (string, error)
}

// Step records the terminal state of one sub-intent.
type Step struct {
	SubQuery models.SubQuery
	Category models.Category
	State    State
	Answer   string
	Err      error
}

// Result is the chain's output: ordered non-empty answers, or escalation.
type Result struct {
	Answers   []string
	Steps     []Step
	Escalated bool
}

// Processor walks a classified chain strictly in original order. One
// sub-intent's panic or error never takes down its siblings.
type Processor struct {
	dispatcher      Dispatcher
	minAnswerLength int
	logger          logger.Logger
}

func NewProcessor(dispatcher Dispatcher, minAnswerLength int, log logger.Logger) *Processor {
	if minAnswerLength <= 0 {
		minAnswerLength = 20
	}
	return &Processor{
		dispatcher:      dispatcher,
		minAnswerLength: minAnswerLength,
		logger:          log.With(map[string]interface{}{"stage": "chain"}),
	}
}

// Process runs the chain. When any classification requires the LLM the
// whole chain escalates; fragmented retrieval would lose the context the
// model needs.
func (p *Processor) Process(ctx context.Context, chain []models.IntentClassification) Result {
	for _, cls := range chain {
		if cls.RequiresLLM {
			p.logger.Info("chain escalated to llm", map[string]interface{}{
				"position": cls.SubQuery.Position,
				"category": string(cls.Category),
			})
			return Result{Escalated: true}
		}
	}

	result := Result{Steps: make([]Step, 0, len(chain))}
	for _, cls := range chain {
		step := p.dispatch(ctx, cls)
		result.Steps = append(result.Steps, step)
		if step.State == StateSucceeded {
			result.Answers = append(result.Answers, step.Answer)
		}
	}
	return result
}

// dispatch runs one sub-intent through the dispatcher with panic
// isolation. Answers below the minimum length count as empty.
func (p *Processor) dispatch(ctx context.Context, cls models.IntentClassification) (step Step) {
	step = Step{SubQuery: cls.SubQuery, Category: cls.Category, State: StateDispatched}

	defer func() {
		if r := recover(); r != nil {
			step.State = StateFailed
			step.Err = errors.NewSubIntentFailedError(cls.SubQuery.Position, fmt.Errorf("panic: %v", r))
			p.logger.Error("sub-intent handler panicked", map[string]interface{}{
				"position": cls.SubQuery.Position,
				"category": string(cls.Category),
				"panic":    fmt.Sprintf("%v", r),
			})
		}
	}()

	answer, err := p.dispatcher.Dispatch(ctx, cls)
	if err != nil {
		step.State = StateFailed
		step.Err = errors.NewSubIntentFailedError(cls.SubQuery.Position, err)
		p.logger.Warn("sub-intent failed, chain continues", map[string]interface{}{
			"position": cls.SubQuery.Position,
			"category": string(cls.Category),
			"error":    err.Error(),
		})
		return step
	}

	answer = strings.TrimSpace(answer)
	if len(answer) < p.minAnswerLength {
		step.State = StateEmpty
		p.logger.Debug("sub-intent answer too short, skipped", map[string]interface{}{
			"position": cls.SubQuery.Position,
			"length":   len(answer),
		})
		return step
	}

	step.State = StateSucceeded
	step.Answer = answer
	return step
}
