package model

// EntryPlan holds the risk levels for a fresh breakout entry.
type EntryPlan struct {
	StopLoss     float64
	TakeProfit   float64
	StopDistance float64
	RiskAmount   float64
	// Sizing is nil when the stop distance is not positive.
	Sizing *Sizing
}

// Sizing is the suggested position size for an entry.
type Sizing struct {
	Notional float64
	Leverage float64
}

// HoldingPlan is the exit guidance for an already-open position.
type HoldingPlan struct {
	TrailingStop float64
	TurtleExit   float64
}
