package collector

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	symbolRegex    = regexp.MustCompile(`^([A-Z0-9]{2,15})/([A-Z0-9]{2,10})$`)
	timeframeRegex = regexp.MustCompile(`^([1-9][0-9]*)([mhdw])$`)
)

// ParseSymbol splits a unified BASE/QUOTE symbol such as BTC/USDT.
func ParseSymbol(symbol string) (base, quote string, err error) {
	m := symbolRegex.FindStringSubmatch(symbol)
	if m == nil {
		return "", "", errors.Errorf("invalid symbol %q, want BASE/QUOTE", symbol)
	}
	return m[1], m[2], nil
}

// Timeframe is a bar length such as 4h, parsed into its count and unit.
type Timeframe struct {
	Count int
	Unit  byte // m, h, d or w
}

// ParseTimeframe parses strings like 15m, 4h, 1d and 1w.
func ParseTimeframe(tf string) (Timeframe, error) {
	m := timeframeRegex.FindStringSubmatch(strings.TrimSpace(tf))
	if m == nil {
		return Timeframe{}, errors.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Timeframe{}, errors.Wrapf(err, "timeframe %q", tf)
	}
	return Timeframe{Count: n, Unit: m[2][0]}, nil
}

// Duration returns the bar length.
func (t Timeframe) Duration() time.Duration {
	unit := time.Minute
	switch t.Unit {
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	}
	return time.Duration(t.Count) * unit
}

func (t Timeframe) String() string { return strconv.Itoa(t.Count) + string(t.Unit) }

// okxBar maps a timeframe to the OKX bar parameter: minutes are lower case,
// hours and above upper case. Daily and weekly bars use the UTC-aligned variants.
func okxBar(t Timeframe) string {
	switch t.Unit {
	case 'm':
		return t.String()
	case 'h':
		return strconv.Itoa(t.Count) + "H"
	case 'd':
		return strconv.Itoa(t.Count) + "Dutc"
	default:
		return strconv.Itoa(t.Count) + "Wutc"
	}
}

// bybitInterval maps a timeframe to the Bybit v5 interval parameter.
func bybitInterval(t Timeframe) (string, error) {
	switch t.Unit {
	case 'm', 'h':
		minutes := int(t.Duration() / time.Minute)
		switch minutes {
		case 1, 3, 5, 15, 30, 60, 120, 240, 360, 720:
			return strconv.Itoa(minutes), nil
		}
	case 'd':
		if t.Count == 1 {
			return "D", nil
		}
	case 'w':
		if t.Count == 1 {
			return "W", nil
		}
	}
	return "", errors.Errorf("timeframe %s not supported by bybit", t)
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", field)
	}
	if v < 0 {
		return 0, errors.Errorf("negative %s %q", field, s)
	}
	return v, nil
}
