package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"

	"github.com/mkarlden/swingsync/internal/series"
)

// DominantFrequency returns the strongest non-DC frequency component of a
// metric series in Hz. The mean is removed before the transform so slow
// drift does not masquerade as a component. Returns ok=false for series too
// short to carry a meaningful spectrum.
func DominantFrequency(s *series.Series[float64], frameDuration float64) (float64, bool) {
	n := s.Len()
	if n < 8 || frameDuration <= 0 {
		return 0, false
	}

	values := s.Float64s()
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)
	for i := range values {
		values[i] -= mean
	}

	spectrum := fft.FFTReal(values)

	bestBin := 0
	bestPower := 0.0
	for k := 1; k < n/2; k++ {
		p := cmplx.Abs(spectrum[k])
		if p > bestPower {
			bestPower = p
			bestBin = k
		}
	}
	if bestBin == 0 {
		return 0, false
	}
	return float64(bestBin) / (float64(n) * frameDuration), true
}

// DivergenceRate estimates the exponential growth rate (1/s) of a series by
// regressing log values against time over the strictly positive samples. A
// clearly positive rate is the signature of chaotic divergence; flat or
// decaying signals report rates near or below zero.
func DivergenceRate(s *series.Series[float64], frameDuration float64) (float64, bool) {
	if s.Len() < 3 || frameDuration <= 0 {
		return 0, false
	}

	var times, logs []float64
	for i := 0; i < s.Len(); i++ {
		v := s.At(i)
		if v <= 0 {
			continue
		}
		times = append(times, float64(i)*frameDuration)
		logs = append(logs, math.Log(v))
	}
	if len(times) < 3 {
		return 0, false
	}

	_, slope := stat.LinearRegression(times, logs, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, false
	}
	return slope, true
}
