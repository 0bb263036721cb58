package fund

import (
	"math"
	"testing"

	"TurtleSentinel/internal/model"
)

const eps = 1e-9

func decision(kind model.DecisionKind, volume, atr float64) *model.Decision {
	return &model.Decision{
		Kind:   kind,
		Symbol: "BTC/USDT",
		Candle: model.OHLCV{Open: 64500, High: 65100, Low: 64400, Close: 65000, Volume: volume},
		Snapshot: model.IndicatorSnapshot{
			UpperChannel: model.ReadingOf(64800),
			LowerChannel: model.ReadingOf(64100),
			VolumeMA:     model.ReadingOf(1000),
			ATR:          model.ReadingOf(atr),
		},
	}
}

func TestApply_BreakoutEntry(t *testing.T) {
	d := decision(model.KindBreakoutEntry, 1500, 500)
	if err := NewSizer(DefaultParams()).Apply(d); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Holding != nil || d.Entry == nil {
		t.Fatalf("expected only an entry plan, got entry=%v holding=%v", d.Entry, d.Holding)
	}
	e := d.Entry
	checks := []struct {
		name      string
		got, want float64
	}{
		{"stop loss", e.StopLoss, 64000},
		{"take profit", e.TakeProfit, 66500},
		{"stop distance", e.StopDistance, 1000},
		{"risk amount", e.RiskAmount, 8},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > eps {
			t.Errorf("%s = %.4f, want %.4f", c.name, c.got, c.want)
		}
	}
	if e.Sizing == nil {
		t.Fatal("expected sizing to be available")
	}
	if math.Abs(e.Sizing.Notional-520) > 1e-6 {
		t.Errorf("notional = %.4f, want 520", e.Sizing.Notional)
	}
	if math.Abs(e.Sizing.Leverage-6.5) > 1e-6 {
		t.Errorf("leverage = %.4f, want 6.5", e.Sizing.Leverage)
	}
}

func TestApply_HoldingGuidance(t *testing.T) {
	d := decision(model.KindHoldingGuidance, 1100, 500)
	if err := NewSizer(DefaultParams()).Apply(d); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Entry != nil || d.Holding == nil {
		t.Fatalf("expected only a holding plan")
	}
	if math.Abs(d.Holding.TrailingStop-64250) > eps {
		t.Errorf("trailing stop = %.2f, want 64250", d.Holding.TrailingStop)
	}
	if d.Holding.TurtleExit != 64100 {
		t.Errorf("turtle exit = %.2f, want 64100", d.Holding.TurtleExit)
	}
}

func TestEntryPlan_ZeroStopDistance(t *testing.T) {
	for _, atr := range []float64{0, -5, math.NaN()} {
		plan := NewSizer(DefaultParams()).EntryPlan(65000, atr)
		if plan.Sizing != nil {
			t.Errorf("atr %v: expected sizing unavailable, got %+v", atr, plan.Sizing)
		}
	}
}

func TestEntryPlan_LeverageFloor(t *testing.T) {
	p := DefaultParams()
	p.TotalCapital = 10000
	p.RiskFraction = 0.01
	s := NewSizer(p)

	for _, atr := range []float64{1, 50, 500, 5000, 50000} {
		plan := s.EntryPlan(65000, atr)
		if plan.Sizing == nil {
			t.Fatalf("atr %v: sizing unexpectedly unavailable", atr)
		}
		if plan.Sizing.Leverage < 1.0 {
			t.Errorf("atr %v: leverage %.4f below floor", atr, plan.Sizing.Leverage)
		}
	}
	// 100 risk over a 100000 stop on a 65000 price is a 65 notional, far below capital.
	if plan := s.EntryPlan(65000, 50000); plan.Sizing.Leverage != 1.0 {
		t.Errorf("expected floored leverage 1.0, got %.4f", plan.Sizing.Leverage)
	}
}

func TestApply_RequiresATR(t *testing.T) {
	d := decision(model.KindBreakoutEntry, 1500, 500)
	d.Snapshot.ATR = model.Reading{}
	if err := NewSizer(DefaultParams()).Apply(d); err == nil {
		t.Error("expected error when ATR is not ready")
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	bad := []func(*Params){
		func(p *Params) { p.SLMultiplier = 0 },
		func(p *Params) { p.TPMultiplier = -1 },
		func(p *Params) { p.TrailMultiplier = 0 },
		func(p *Params) { p.TotalCapital = 0 },
		func(p *Params) { p.RiskFraction = 0 },
		func(p *Params) { p.RiskFraction = 1.5 },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
