package fund

import (
	"math"

	"github.com/pkg/errors"

	"TurtleSentinel/internal/model"
)

// Params holds the ATR multiples and capital used for risk levels.
type Params struct {
	SLMultiplier    float64
	TPMultiplier    float64
	TrailMultiplier float64
	TotalCapital    float64
	RiskFraction    float64 // share of capital lost if the stop is hit
}

// DefaultParams returns 2/3/1.5 ATR multiples on 80 USDT risking 10%.
func DefaultParams() Params {
	return Params{
		SLMultiplier:    2.0,
		TPMultiplier:    3.0,
		TrailMultiplier: 1.5,
		TotalCapital:    80,
		RiskFraction:    0.1,
	}
}

// Validate checks that multiples and capital are positive and the risk fraction is in (0, 1].
func (p Params) Validate() error {
	switch {
	case p.SLMultiplier <= 0:
		return errors.New("stop-loss multiplier must be positive")
	case p.TPMultiplier <= 0:
		return errors.New("take-profit multiplier must be positive")
	case p.TrailMultiplier <= 0:
		return errors.New("trailing multiplier must be positive")
	case p.TotalCapital <= 0:
		return errors.New("total capital must be positive")
	case p.RiskFraction <= 0 || p.RiskFraction > 1:
		return errors.New("risk fraction must be in (0, 1]")
	}
	return nil
}

// Sizer derives stop, target and position size from ATR. It holds no state.
type Sizer struct {
	params Params
}

// NewSizer creates a Sizer.
func NewSizer(p Params) *Sizer {
	return &Sizer{params: p}
}

// Params returns the sizing parameters.
func (s *Sizer) Params() Params { return s.params }

// Apply attaches the entry or holding plan matching the decision kind.
func (s *Sizer) Apply(d *model.Decision) error {
	if !d.Snapshot.ATR.Ready {
		return errors.New("atr not ready")
	}
	atr := d.Snapshot.ATR.Value
	switch d.Kind {
	case model.KindBreakoutEntry:
		plan := s.EntryPlan(d.Price(), atr)
		d.Entry, d.Holding = &plan, nil
	case model.KindHoldingGuidance:
		if !d.Snapshot.LowerChannel.Ready {
			return errors.New("lower channel not ready")
		}
		plan := s.HoldingPlan(d.Price(), atr, d.Snapshot.LowerChannel.Value)
		d.Entry, d.Holding = nil, &plan
	default:
		return errors.Errorf("unknown decision kind %q", d.Kind)
	}
	return nil
}

// EntryPlan computes stop-loss, take-profit and, when the stop distance is
// positive, a position notional whose loss at the stop equals the risk amount.
// Leverage never drops below 1.
func (s *Sizer) EntryPlan(price, atr float64) model.EntryPlan {
	p := s.params
	stopDist := p.SLMultiplier * atr
	plan := model.EntryPlan{
		StopLoss:     price - stopDist,
		TakeProfit:   price + p.TPMultiplier*atr,
		StopDistance: stopDist,
		RiskAmount:   p.TotalCapital * p.RiskFraction,
	}
	if !(stopDist > 0) || math.IsInf(stopDist, 0) {
		return plan
	}

	notional := plan.RiskAmount / stopDist * price
	leverage := math.Max(notional/p.TotalCapital, 1.0)
	if math.IsNaN(notional) || math.IsInf(notional, 0) || math.IsInf(leverage, 0) {
		return plan
	}
	plan.Sizing = &model.Sizing{Notional: notional, Leverage: leverage}
	return plan
}

// HoldingPlan computes the ATR trailing stop and carries the lower channel as
// the turtle exit.
func (s *Sizer) HoldingPlan(price, atr, lowerChannel float64) model.HoldingPlan {
	return model.HoldingPlan{
		TrailingStop: price - s.params.TrailMultiplier*atr,
		TurtleExit:   lowerChannel,
	}
}
