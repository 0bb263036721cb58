package calculator

import (
	"github.com/pkg/errors"

	"TurtleSentinel/internal/model"
)

// Params holds the look-back periods of every indicator.
type Params struct {
	ChannelPeriod int // upper breakout channel
	ExitPeriod    int // lower channel, used as the turtle exit
	VolumePeriod  int
	ATRPeriod     int
}

// DefaultParams returns the classic 20/10/20/20 configuration.
func DefaultParams() Params {
	return Params{ChannelPeriod: 20, ExitPeriod: 10, VolumePeriod: 20, ATRPeriod: 20}
}

// Validate rejects non-positive periods.
func (p Params) Validate() error {
	switch {
	case p.ChannelPeriod <= 0:
		return errors.New("channel period must be positive")
	case p.ExitPeriod <= 0:
		return errors.New("exit period must be positive")
	case p.VolumePeriod <= 0:
		return errors.New("volume period must be positive")
	case p.ATRPeriod <= 0:
		return errors.New("atr period must be positive")
	}
	return nil
}

// WarmupBars is the smallest index at which every reading is ready.
func (p Params) WarmupBars() int {
	n := p.ATRPeriod + 1
	for _, v := range []int{p.ChannelPeriod, p.ExitPeriod, p.VolumePeriod} {
		if v > n {
			n = v
		}
	}
	return n
}

// MinBars is the shortest series for which the last closed bar has every
// reading ready: the warm-up history, the target bar and the forming bar.
func (p Params) MinBars() int { return p.WarmupBars() + 2 }

type columns struct {
	bars    []model.OHLCV
	highs   []float64
	lows    []float64
	volumes []float64
	trs     []float64
}

func newColumns(series *model.CandleSeries) columns {
	bars := series.Bars()
	return columns{
		bars:    bars,
		highs:   extractHighs(bars),
		lows:    extractLows(bars),
		volumes: extractVolumes(bars),
		trs:     TrueRanges(bars),
	}
}

func (c columns) snapshot(i int, p Params) model.IndicatorSnapshot {
	return model.IndicatorSnapshot{
		Index:        i,
		UpperChannel: UpperChannel(c.highs, i, p.ChannelPeriod),
		LowerChannel: LowerChannel(c.lows, i, p.ExitPeriod),
		VolumeMA:     VolumeMA(c.volumes, i, p.VolumePeriod),
		TrueRange:    TrueRange(c.bars, i),
		ATR:          ATR(c.trs, i, p.ATRPeriod),
	}
}

// Compute returns one snapshot per bar of the series.
func Compute(series *model.CandleSeries, p Params) ([]model.IndicatorSnapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cols := newColumns(series)
	out := make([]model.IndicatorSnapshot, series.Len())
	for i := range out {
		out[i] = cols.snapshot(i, p)
	}
	return out, nil
}

// SnapshotAt computes the readings for a single bar index.
func SnapshotAt(series *model.CandleSeries, i int, p Params) (model.IndicatorSnapshot, error) {
	if err := p.Validate(); err != nil {
		return model.IndicatorSnapshot{}, err
	}
	if i < 0 || i >= series.Len() {
		return model.IndicatorSnapshot{}, errors.Errorf("index %d out of range [0, %d)", i, series.Len())
	}
	return newColumns(series).snapshot(i, p), nil
}
