package model

// DecisionKind classifies the evaluated bar.
type DecisionKind string

const (
	KindBreakoutEntry   DecisionKind = "BREAKOUT_ENTRY"
	KindHoldingGuidance DecisionKind = "HOLDING_GUIDANCE"
)

// Entry rule conditions, in the order they are reported.
const (
	CondChannelBreakout = "channel_breakout"
	CondVolumeSurge     = "volume_surge"
	CondBullishBody     = "bullish_body"
)

// Condition is one conjunct of the entry rule.
type Condition struct {
	Name   string
	Passed bool
	Detail string
}

// Decision is the outcome of one evaluation. Exactly one of Entry and Holding
// is set once risk levels have been applied.
type Decision struct {
	Kind            DecisionKind
	Symbol          string
	Timeframe       string
	Candle          OHLCV
	Snapshot        IndicatorSnapshot
	VolumeThreshold float64
	Conditions      []Condition

	Entry   *EntryPlan
	Holding *HoldingPlan
}

// IsEntry reports whether the decision is a breakout entry.
func (d *Decision) IsEntry() bool { return d.Kind == KindBreakoutEntry }

// Price is the close of the evaluated bar.
func (d *Decision) Price() float64 { return d.Candle.Close }
