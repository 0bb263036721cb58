package strategy

import (
	"github.com/pkg/errors"

	"TurtleSentinel/internal/calculator"
	"TurtleSentinel/internal/model"
)

// Params tunes the entry rule.
type Params struct {
	VolumeSurgeFactor float64
}

// DefaultParams requires volume 20% above its average.
func DefaultParams() Params { return Params{VolumeSurgeFactor: 1.2} }

// Evaluator classifies the last closed bar of a series.
type Evaluator struct {
	Indicators calculator.Params
	Params     Params
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(ind calculator.Params, p Params) *Evaluator {
	return &Evaluator{Indicators: ind, Params: p}
}

// TargetIndex is the index of the last fully closed bar. The final bar of a
// fetched series is still forming and is never evaluated.
func TargetIndex(series *model.CandleSeries) int { return series.Len() - 2 }

// Evaluate returns a breakout entry when the target bar closes above the upper
// channel on surging volume with a bullish body, and holding guidance otherwise.
// It returns an InsufficientDataError instead of guessing when any reading
// either branch depends on is not ready.
func (e *Evaluator) Evaluate(series *model.CandleSeries) (*model.Decision, error) {
	need := e.Indicators.MinBars()
	if series.Len() < 2 {
		return nil, &model.InsufficientDataError{Have: series.Len(), Need: need}
	}

	i := TargetIndex(series)
	snap, err := calculator.SnapshotAt(series, i, e.Indicators)
	if err != nil {
		return nil, errors.Wrap(err, "compute indicators")
	}

	for _, r := range []struct {
		name    string
		reading model.Reading
	}{
		{"upper_channel", snap.UpperChannel},
		{"lower_channel", snap.LowerChannel},
		{"volume_ma", snap.VolumeMA},
		{"atr", snap.ATR},
	} {
		if !r.reading.Ready {
			return nil, &model.InsufficientDataError{Have: series.Len(), Need: need, Index: i, Reading: r.name}
		}
	}

	candle := series.At(i)
	threshold := snap.VolumeMA.Value * e.Params.VolumeSurgeFactor
	conds := []model.Condition{
		checkChannelBreakout(candle, snap),
		checkVolumeSurge(candle, threshold),
		checkBullishBody(candle),
	}

	kind := model.KindHoldingGuidance
	if allPassed(conds) {
		kind = model.KindBreakoutEntry
	}

	return &model.Decision{
		Kind:            kind,
		Symbol:          series.Symbol,
		Timeframe:       series.Timeframe,
		Candle:          candle,
		Snapshot:        snap,
		VolumeThreshold: threshold,
		Conditions:      conds,
	}, nil
}
