package strategy

import (
	"fmt"

	"TurtleSentinel/internal/model"
)

// checkChannelBreakout passes when the close is strictly above the upper channel.
func checkChannelBreakout(c model.OHLCV, snap model.IndicatorSnapshot) model.Condition {
	upper := snap.UpperChannel.Value
	return model.Condition{
		Name:   model.CondChannelBreakout,
		Passed: c.Close > upper,
		Detail: fmt.Sprintf("close %.2f vs upper %.2f", c.Close, upper),
	}
}

// checkVolumeSurge passes when volume is strictly above the volume MA times the surge factor.
func checkVolumeSurge(c model.OHLCV, threshold float64) model.Condition {
	return model.Condition{
		Name:   model.CondVolumeSurge,
		Passed: c.Volume > threshold,
		Detail: fmt.Sprintf("volume %.2f vs threshold %.2f", c.Volume, threshold),
	}
}

// checkBullishBody passes on a green candle.
func checkBullishBody(c model.OHLCV) model.Condition {
	return model.Condition{
		Name:   model.CondBullishBody,
		Passed: c.Close > c.Open,
		Detail: fmt.Sprintf("close %.2f vs open %.2f", c.Close, c.Open),
	}
}

func allPassed(conds []model.Condition) bool {
	for _, c := range conds {
		if !c.Passed {
			return false
		}
	}
	return true
}
