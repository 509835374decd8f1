package series

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Number constrains the element types a Series can carry.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Series is an append-only per-frame time series. Insertion order is frame
// order. Reads outside the recorded range return the zero value of T, never
// an error; callers distinguish "not yet recorded" from "recorded as zero"
// by checking Len.
type Series[T Number] struct {
	values []T
}

func New[T Number]() *Series[T] {
	return &Series[T]{}
}

// FromValues builds a series pre-populated with the given samples.
func FromValues[T Number](values []T) *Series[T] {
	s := &Series[T]{values: make([]T, len(values))}
	copy(s.values, values)
	return s
}

func (s *Series[T]) Push(v T)    { s.values = append(s.values, v) }
func (s *Series[T]) Clear()      { s.values = s.values[:0] }
func (s *Series[T]) Len() int    { return len(s.values) }
func (s *Series[T]) Empty() bool { return len(s.values) == 0 }

// At returns the value at the given frame, or the zero value when the frame
// has not been recorded.
func (s *Series[T]) At(frame int) T {
	var zero T
	if frame < 0 || frame >= len(s.values) {
		return zero
	}
	return s.values[frame]
}

// Current returns the most recent value, or the zero value for an empty series.
func (s *Series[T]) Current() T {
	var zero T
	if len(s.values) == 0 {
		return zero
	}
	return s.values[len(s.values)-1]
}

// DerivativeAt returns the backward difference at the given frame. Frame 0
// (and out-of-range frames) yield the zero value.
func (s *Series[T]) DerivativeAt(frame int) T {
	var zero T
	if frame <= 0 || frame >= len(s.values) {
		return zero
	}
	return s.values[frame] - s.values[frame-1]
}

// Derivative returns the backward difference at the latest frame.
func (s *Series[T]) Derivative() T {
	return s.DerivativeAt(len(s.values) - 1)
}

// Derivatives returns the full backward-difference history: length Len()-1,
// index i holding the difference between frames i and i+1.
func (s *Series[T]) Derivatives() []T {
	if len(s.values) < 2 {
		return nil
	}
	out := make([]T, len(s.values)-1)
	for i := range out {
		out[i] = s.values[i+1] - s.values[i]
	}
	return out
}

// SmoothedAt returns a centered moving average around the given frame.
// window is the half-width in frames; the window is clamped at the series
// edges rather than zero-padded.
func (s *Series[T]) SmoothedAt(frame, window int) float64 {
	if frame < 0 || frame >= len(s.values) {
		return 0
	}
	if window < 0 {
		window = 0
	}
	lo := frame - window
	if lo < 0 {
		lo = 0
	}
	hi := frame + window
	if hi > len(s.values)-1 {
		hi = len(s.values) - 1
	}
	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += float64(s.values[i])
	}
	return sum / float64(hi-lo+1)
}

// Values returns a copy of the recorded samples.
func (s *Series[T]) Values() []T {
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}

// Float64s returns the samples converted to float64.
func (s *Series[T]) Float64s() []float64 {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = float64(v)
	}
	return out
}

func (s *Series[T]) Min() T {
	var min T
	if len(s.values) == 0 {
		return min
	}
	min = s.values[0]
	for _, v := range s.values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func (s *Series[T]) Max() T {
	var max T
	if len(s.values) == 0 {
		return max
	}
	max = s.values[0]
	for _, v := range s.values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func (s *Series[T]) Mean() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return stat.Mean(s.Float64s(), nil)
}

// Variance returns the sample variance (divisor n-1), or zero for fewer than
// two samples. The metrics collector's "variance" metric uses population
// variance instead; the two conventions are intentionally distinct.
func (s *Series[T]) Variance() float64 {
	if len(s.values) < 2 {
		return 0
	}
	return stat.Variance(s.Float64s(), nil)
}

func (s *Series[T]) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// Percentile returns the p-th percentile (p in [0,100]) using linear
// interpolation between sorted order statistics.
func (s *Series[T]) Percentile(p float64) float64 {
	n := len(s.values)
	if n == 0 {
		return 0
	}
	sorted := s.Float64s()
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	frac := idx - float64(lo)
	if lo+1 >= n {
		return sorted[lo]
	}
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

// FindThresholdCrossing returns the first frame of the earliest run of
// confirm consecutive samples strictly beyond the threshold in the given
// direction (above: > threshold, otherwise < threshold). The second return
// is false when no such run exists.
func (s *Series[T]) FindThresholdCrossing(threshold T, confirm int, above bool) (int, bool) {
	if confirm < 1 {
		confirm = 1
	}
	run := 0
	start := -1
	for i, v := range s.values {
		ok := v > threshold
		if !above {
			ok = v < threshold
		}
		if ok {
			if run == 0 {
				start = i
			}
			run++
			if run >= confirm {
				return start, true
			}
		} else {
			run = 0
			start = -1
		}
	}
	return -1, false
}

// FindPeak returns the frame and value of the global maximum (or minimum
// when maximum is false). Ties resolve to the earliest frame. An empty series
// returns frame -1.
func (s *Series[T]) FindPeak(maximum bool) (int, T) {
	var best T
	if len(s.values) == 0 {
		return -1, best
	}
	frame := 0
	best = s.values[0]
	for i, v := range s.values[1:] {
		if (maximum && v > best) || (!maximum && v < best) {
			best = v
			frame = i + 1
		}
	}
	return frame, best
}

// FindDerivativePeak returns the frame whose backward difference is the
// largest (or smallest). The reported frame is the later frame of the pair.
// Series with fewer than two samples return frame -1.
func (s *Series[T]) FindDerivativePeak(maximum bool) (int, T) {
	var best T
	if len(s.values) < 2 {
		return -1, best
	}
	frame := 1
	best = s.values[1] - s.values[0]
	for i := 2; i < len(s.values); i++ {
		d := s.values[i] - s.values[i-1]
		if (maximum && d > best) || (!maximum && d < best) {
			best = d
			frame = i
		}
	}
	return frame, best
}

// Prominence measures how far the value at frame rises above the higher of
// its two flanking local minima: walking outward in each direction, the
// minimum is tracked until a strictly higher sample or the series edge is
// reached. Out-of-range frames return zero.
func (s *Series[T]) Prominence(frame int) float64 {
	if frame < 0 || frame >= len(s.values) {
		return 0
	}
	peak := float64(s.values[frame])

	// A side with no samples (peak at an edge) must not constrain the base.
	leftMin := math.Inf(-1)
	for i := frame - 1; i >= 0; i-- {
		v := float64(s.values[i])
		if v > peak {
			break
		}
		if math.IsInf(leftMin, -1) || v < leftMin {
			leftMin = v
		}
	}

	rightMin := math.Inf(-1)
	for i := frame + 1; i < len(s.values); i++ {
		v := float64(s.values[i])
		if v > peak {
			break
		}
		if math.IsInf(rightMin, -1) || v < rightMin {
			rightMin = v
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	if math.IsInf(base, -1) {
		return 0
	}
	return peak - base
}
