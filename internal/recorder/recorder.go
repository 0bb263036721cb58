package recorder

import (
	"time"

	"TurtleSentinel/internal/model"
)

// Outcome labels one evaluation run.
type Outcome string

const (
	OutcomeEntry            Outcome = "BREAKOUT_ENTRY"
	OutcomeHolding          Outcome = "HOLDING_GUIDANCE"
	OutcomeInsufficientData Outcome = "INSUFFICIENT_DATA"
	OutcomeFetchError       Outcome = "FETCH_ERROR"
	OutcomeError            Outcome = "ERROR"
)

// OutcomeOf maps a decision kind to its outcome label.
func OutcomeOf(kind model.DecisionKind) Outcome {
	if kind == model.KindBreakoutEntry {
		return OutcomeEntry
	}
	return OutcomeHolding
}

// Evaluation is one journal entry. Decision is nil when the run failed
// before classification.
type Evaluation struct {
	RunAt     time.Time
	Symbol    string
	Timeframe string
	Outcome   Outcome
	Decision  *model.Decision
	Message   string
	Delivered bool
	Error     string
}

// Recorder keeps an append-only journal of evaluations. Nothing reads it
// back during a run.
type Recorder interface {
	RecordEvaluation(ev *Evaluation) error
	Close() error
}
