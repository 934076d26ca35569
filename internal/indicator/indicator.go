// Package indicator computes technical indicators over in-memory price series.
package indicator

import (
	"github.com/rxtech-lab/argo-runtime/pkg/errors"
)

// Bar is a price/volume pair for VWAP.
type Bar struct {
	Price  float64
	Volume float64
}

// SMA returns the arithmetic mean of values.
func SMA(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.NewInsufficientDataError(1, 0, "", "sma needs at least one value")
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values)), nil
}

// EMA seeds with the first value and smooths with k = 2/(period+1).
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	if len(values) == 0 {
		return 0, errors.NewInsufficientDataError(1, 0, "", "ema needs at least one value")
	}

	k := 2 / float64(period+1)
	e := values[0]

	for _, v := range values[1:] {
		e = e*(1-k) + v*k
	}

	return e, nil
}

// RSI is Wilder's relative strength index. It needs period+1 values; the
// first period changes seed the averages and later ones are smoothed.
func RSI(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	if len(values) < period+1 {
		return 0, errors.NewInsufficientDataErrorf(period+1, len(values), "",
			"rsi needs %d values, got %d", period+1, len(values))
	}

	gains := make([]float64, 0, len(values)-1)
	losses := make([]float64, 0, len(values)-1)

	for i := 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		gains = append(gains, max(diff, 0))
		losses = append(losses, max(-diff, 0))
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}

	p := float64(period)
	avgGain /= p
	avgLoss /= p

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs), nil
}

// VWAP is the volume-weighted average price of bars.
func VWAP(bars []Bar) (float64, error) {
	var totalPV, totalVolume float64
	for _, b := range bars {
		totalPV += b.Price * b.Volume
		totalVolume += b.Volume
	}

	if totalVolume == 0 {
		return 0, errors.NewInsufficientDataError(1, 0, "", "vwap needs non-zero volume")
	}

	return totalPV / totalVolume, nil
}
