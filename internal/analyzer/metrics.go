package analyzer

import (
	"math"
	"time"
)

// MaxDrawdown returns the largest peak-to-trough decline as a fraction
// of the peak.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var maxDrawdown float64
	peak := values[0]
	for _, value := range values {
		if value > peak {
			peak = value
		}
		if drawdown := (peak - value) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// SharpeRatio returns the annualized Sharpe ratio of the curve,
// assuming a zero risk-free rate.
func SharpeRatio(times []time.Time, values []float64) float64 {
	returns := periodReturns(values)
	if len(returns) == 0 {
		return 0
	}
	mean := meanOf(returns)
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std == 0 {
		return 0
	}
	perYear := valuesPerYear(times, len(values))
	if perYear == 0 {
		return 0
	}
	return mean * math.Sqrt(perYear) / std
}

// SortinoRatio is the Sharpe ratio with only downside volatility in the
// denominator.
func SortinoRatio(times []time.Time, values []float64) float64 {
	returns := periodReturns(values)
	if len(returns) == 0 {
		return 0
	}
	mean := meanOf(returns)
	deviation := 0.0
	for _, r := range returns {
		downside := math.Min(r, 0)
		deviation += (downside - mean) * (downside - mean)
	}
	deviation = math.Sqrt(deviation / float64(len(returns)))
	if deviation == 0 {
		return 0
	}
	perYear := valuesPerYear(times, len(values))
	if perYear == 0 {
		return 0
	}
	return mean * math.Sqrt(perYear) / deviation
}

// AnnualizedReturn compounds the total return down to a yearly rate.
func AnnualizedReturn(times []time.Time, values []float64) float64 {
	if len(values) < 2 || len(times) < 2 {
		return 0
	}
	days := times[len(times)-1].Sub(times[0]).Hours() / 24
	if days <= 0 {
		return 0
	}
	return math.Pow(values[len(values)-1]/values[0], 365/days) - 1
}

// TotalReturn is the overall fractional gain of the curve.
func TotalReturn(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return values[len(values)-1]/values[0] - 1
}

func periodReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func valuesPerYear(times []time.Time, count int) float64 {
	if len(times) < 2 {
		return 0
	}
	days := times[len(times)-1].Sub(times[0]).Hours() / 24
	if days <= 0 {
		return 0
	}
	return float64(count) / days * 365
}
