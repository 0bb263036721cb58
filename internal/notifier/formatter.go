package notifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"TurtleSentinel/internal/model"
)

const separator = "----------------------"

// FormatDecision renders a decision as plain text. The output depends only on
// the decision, so identical decisions render byte-identical messages.
func FormatDecision(d *model.Decision) string {
	if d.IsEntry() {
		return formatEntry(d)
	}
	return formatHolding(d)
}

func formatEntry(d *model.Decision) string {
	var b strings.Builder
	quote := quoteOf(d.Symbol)

	writeHeader(&b, "🐢 Turtle breakout entry", d)
	b.WriteString(fmt.Sprintf("Close: %s | Open: %s\n", price(d.Candle.Close), price(d.Candle.Open)))
	b.WriteString(fmt.Sprintf("Upper channel: %s\n", price(d.Snapshot.UpperChannel.Value)))
	b.WriteString(fmt.Sprintf("Volume: %s (threshold %s)\n", price(d.Candle.Volume), price(d.VolumeThreshold)))
	b.WriteString(fmt.Sprintf("ATR: %s\n", price(d.Snapshot.ATR.Value)))

	e := d.Entry
	if e == nil {
		b.WriteString("Risk levels unavailable")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Stop loss: %s\n", price(e.StopLoss)))
	b.WriteString(fmt.Sprintf("Take profit: %s\n", price(e.TakeProfit)))
	if e.Sizing == nil {
		b.WriteString(fmt.Sprintf("Position: sizing unavailable (stop distance %s)", price(e.StopDistance)))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Position: %s%s notional @ %sx leverage (risk %s%s)",
		fixed(e.Sizing.Notional, 0), quote, fixed(e.Sizing.Leverage, 1), price(e.RiskAmount), quote))
	return b.String()
}

func formatHolding(d *model.Decision) string {
	var b strings.Builder

	writeHeader(&b, "🐢 Turtle holding guidance", d)
	b.WriteString(fmt.Sprintf("Close: %s\n", price(d.Candle.Close)))
	b.WriteString("No new entry:")
	for _, c := range d.Conditions {
		mark := "❌"
		if c.Passed {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf(" %s %s", c.Name, mark))
	}
	b.WriteString("\n")

	h := d.Holding
	if h == nil {
		b.WriteString("Exit levels unavailable")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Trailing stop: %s\n", price(h.TrailingStop)))
	b.WriteString(fmt.Sprintf("Turtle exit (channel low): %s", price(h.TurtleExit)))
	return b.String()
}

func writeHeader(b *strings.Builder, title string, d *model.Decision) {
	b.WriteString(fmt.Sprintf("%s | %s %s\n", title, d.Symbol, d.Timeframe))
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf("Bar: %s\n", d.Candle.Time.UTC().Format("2006-01-02 15:04 UTC")))
}

func price(v float64) string { return fixed(v, 2) }

// fixed rounds half away from zero to the given number of decimals.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func quoteOf(symbol string) string {
	if i := strings.LastIndex(symbol, "/"); i >= 0 && i < len(symbol)-1 {
		return " " + symbol[i+1:]
	}
	return ""
}
