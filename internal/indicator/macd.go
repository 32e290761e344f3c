package indicator

// MACDResult holds the MACD line and its signal line.
type MACDResult struct {
	Line   []float64
	Signal []float64
}

// MACD computes MACD = EMA(fast) - EMA(slow) and Signal = EMA(MACD, signal).
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fast[i] - slow[i]
	}

	return MACDResult{
		Line:   line,
		Signal: EMA(line, signalPeriod),
	}
}
