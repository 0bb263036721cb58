package model

// Reading is an indicator value that may not be defined yet.
// A reading that is not Ready carries no meaningful Value.
type Reading struct {
	Value float64
	Ready bool
}

// ReadingOf returns a ready reading holding v.
func ReadingOf(v float64) Reading { return Reading{Value: v, Ready: true} }

// IndicatorSnapshot holds the indicator readings for one bar index.
// Channels, volume MA and ATR only use bars before Index.
type IndicatorSnapshot struct {
	Index        int
	UpperChannel Reading
	LowerChannel Reading
	VolumeMA     Reading
	TrueRange    Reading
	ATR          Reading
}
