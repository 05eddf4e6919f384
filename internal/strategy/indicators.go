package strategy

import "math"

// Rolling-window helpers over date-aligned series. Positions without enough
// history, or whose window contains a gap (NaN), evaluate to NaN so that
// signal comparisons downstream stay false and resolve to HOLD.

func pctChange(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		if i < n {
			out[i] = math.NaN()
			continue
		}
		out[i] = vals[i]/vals[i-n] - 1
	}
	return out
}

func rollingMean(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		if i < n-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - n + 1; j <= i; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// rollingStd computes the sample standard deviation (ddof=1) over a trailing
// window of n values.
func rollingStd(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	means := rollingMean(vals, n)
	for i := range out {
		if i < n-1 || n < 2 {
			out[i] = math.NaN()
			continue
		}
		m := means[i]
		ss := 0.0
		for j := i - n + 1; j <= i; j++ {
			d := vals[j] - m
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

func rollingMax(vals []float64, n int) []float64 {
	return rollingExtreme(vals, n, func(a, b float64) bool { return b > a })
}

func rollingMin(vals []float64, n int) []float64 {
	return rollingExtreme(vals, n, func(a, b float64) bool { return b < a })
}

func rollingExtreme(vals []float64, n int, better func(cur, cand float64) bool) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		if i < n-1 {
			out[i] = math.NaN()
			continue
		}
		ext := vals[i-n+1]
		for j := i - n + 2; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				ext = math.NaN()
				break
			}
			if better(ext, vals[j]) {
				ext = vals[j]
			}
		}
		out[i] = ext
	}
	return out
}

// shift1 returns the series moved forward by one position, with NaN in front.
func shift1(vals []float64) []float64 {
	out := make([]float64, len(vals))
	if len(out) > 0 {
		out[0] = math.NaN()
	}
	copy(out[1:], vals[:max(len(vals)-1, 0)])
	return out
}

// trueRange returns the per-day true range series:
// max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(high, low, closes []float64) []float64 {
	prev := shift1(closes)
	out := make([]float64, len(closes))
	for i := range out {
		tr := high[i] - low[i]
		// No previous close on the first day: fall back to high-low.
		if !math.IsNaN(prev[i]) {
			tr = math.Max(tr, math.Abs(high[i]-prev[i]))
			tr = math.Max(tr, math.Abs(low[i]-prev[i]))
		}
		out[i] = tr
	}
	return out
}
