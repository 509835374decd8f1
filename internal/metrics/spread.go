package metrics

import "math"

// SpreadMetrics summarizes the circular distribution of the first-arm angles
// across the ensemble for one frame.
type SpreadMetrics struct {
	// SpreadRatio is the fraction of pendulums whose normalized first angle
	// exceeds pi/2 in magnitude.
	SpreadRatio float64
	// CircularSpread is 1 minus the mean resultant length of the circular
	// distribution: 0 fully concentrated, 1 uniform.
	CircularSpread float64
	// AngularRange is the span of normalized angles divided by 2*pi.
	AngularRange float64
	// MeanAngle is the circular mean of the distribution.
	MeanAngle float64
	// ResultantLength is the mean resultant length R in [0,1].
	ResultantLength float64
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// ComputeSpread derives SpreadMetrics from raw (unnormalized) angles.
func ComputeSpread(angles []float64) SpreadMetrics {
	if len(angles) == 0 {
		return SpreadMetrics{}
	}

	var sumSin, sumCos float64
	spread := 0
	minA, maxA := math.Inf(1), math.Inf(-1)

	for _, a := range angles {
		sumSin += math.Sin(a)
		sumCos += math.Cos(a)

		n := NormalizeAngle(a)
		if math.Abs(n) > math.Pi/2 {
			spread++
		}
		if n < minA {
			minA = n
		}
		if n > maxA {
			maxA = n
		}
	}

	count := float64(len(angles))
	r := math.Hypot(sumSin, sumCos) / count

	return SpreadMetrics{
		SpreadRatio:     float64(spread) / count,
		CircularSpread:  1 - r,
		AngularRange:    (maxA - minA) / (2 * math.Pi),
		MeanAngle:       math.Atan2(sumSin, sumCos),
		ResultantLength: r,
	}
}

// alignment measures how strongly a set of directions folds onto a common
// axis: the resultant length of the doubled angles. Caustic-like visual
// structure correlates with second-arm directions collapsing onto a line.
func alignment(angles []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	var sumSin, sumCos float64
	for _, a := range angles {
		sumSin += math.Sin(2 * a)
		sumCos += math.Cos(2 * a)
	}
	return math.Hypot(sumSin, sumCos) / float64(len(angles))
}

// populationVariance uses divisor n, matching the original system's
// "variance" metric. The generic Series.Variance is sample variance (n-1).
func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	acc := 0.0
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(values))
}
