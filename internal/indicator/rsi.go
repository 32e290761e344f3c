package indicator

import "math"

// gainsLosses splits bar-over-bar price changes into gain and loss columns.
// The first position has no previous value and contributes zero to both.
func gainsLosses(values []float64) (gains, losses []float64) {
	gains = make([]float64, len(values))
	losses = make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	return gains, losses
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// WilderRSI computes RSI with Wilder smoothing: average gains and losses
// follow an exponential recursion with alpha = 1/period.
func WilderRSI(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	gains, losses := gainsLosses(values)
	alpha := 1.0 / float64(period)

	avgGain, avgLoss := gains[0], losses[0]
	out[0] = rsiFromAverages(avgGain, avgLoss)
	for i := 1; i < len(values); i++ {
		avgGain = (1-alpha)*avgGain + alpha*gains[i]
		avgLoss = (1-alpha)*avgLoss + alpha*losses[i]
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

// SimpleRSI computes RSI with plain rolling averages of gains and losses.
// Positions with an incomplete window are NaN.
func SimpleRSI(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	gains, losses := gainsLosses(values)
	avgGains := SMA(gains, period)
	avgLosses := SMA(losses, period)
	for i := range values {
		if math.IsNaN(avgGains[i]) || math.IsNaN(avgLosses[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = rsiFromAverages(avgGains[i], avgLosses[i])
	}
	return out
}
