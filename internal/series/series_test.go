package series

import (
	"math"
	"testing"
)

func TestAt_ZeroPadded(t *testing.T) {
	s := FromValues([]float64{1.5, 2.5})

	if got := s.At(0); got != 1.5 {
		t.Errorf("At(0) = %v, want 1.5", got)
	}
	if got := s.At(2); got != 0 {
		t.Errorf("At(2) = %v, want 0 for unrecorded frame", got)
	}
	if got := s.At(-1); got != 0 {
		t.Errorf("At(-1) = %v, want 0", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestCurrent(t *testing.T) {
	s := New[float64]()
	if got := s.Current(); got != 0 {
		t.Errorf("Current() on empty = %v, want 0", got)
	}
	s.Push(3)
	s.Push(7)
	if got := s.Current(); got != 7 {
		t.Errorf("Current() = %v, want 7", got)
	}
}

func TestDerivative(t *testing.T) {
	s := FromValues([]float64{1, 4, 9, 16})

	if got := s.DerivativeAt(0); got != 0 {
		t.Errorf("DerivativeAt(0) = %v, want 0", got)
	}
	if got := s.DerivativeAt(2); got != 5 {
		t.Errorf("DerivativeAt(2) = %v, want 5", got)
	}
	if got := s.Derivative(); got != 7 {
		t.Errorf("Derivative() = %v, want 7", got)
	}

	hist := s.Derivatives()
	if len(hist) != 3 {
		t.Fatalf("Derivatives() length = %d, want 3", len(hist))
	}
	want := []float64{3, 5, 7}
	for i, d := range hist {
		if d != want[i] {
			t.Errorf("Derivatives()[%d] = %v, want %v", i, d, want[i])
		}
	}
}

func TestSmoothedAt_EdgeClamp(t *testing.T) {
	s := FromValues([]float64{0, 3, 6, 9, 12})

	if got := s.SmoothedAt(2, 1); got != 6 {
		t.Errorf("SmoothedAt(2,1) = %v, want 6", got)
	}
	// At the left edge only frames 0 and 1 contribute.
	if got := s.SmoothedAt(0, 1); got != 1.5 {
		t.Errorf("SmoothedAt(0,1) = %v, want 1.5", got)
	}
	if got := s.SmoothedAt(4, 2); got != 9 {
		t.Errorf("SmoothedAt(4,2) = %v, want 9", got)
	}
}

func TestMeanVariance(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		mean     float64
		variance float64
	}{
		{"pair", []float64{2, 4}, 3, 2},
		{"triple", []float64{1, 2, 3}, 2, 1},
		{"single", []float64{5}, 5, 0},
		{"empty", nil, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromValues(tt.values)
			if got := s.Mean(); math.Abs(got-tt.mean) > 1e-12 {
				t.Errorf("Mean() = %v, want %v", got, tt.mean)
			}
			if got := s.Variance(); math.Abs(got-tt.variance) > 1e-12 {
				t.Errorf("Variance() = %v, want %v", got, tt.variance)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	s := FromValues([]float64{40, 10, 20, 30})

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{100, 40},
		{50, 25},
		{25, 17.5},
	}
	for _, tt := range tests {
		if got := s.Percentile(tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	empty := New[float64]()
	if got := empty.Percentile(50); got != 0 {
		t.Errorf("Percentile on empty = %v, want 0", got)
	}
}

func TestFindThresholdCrossing(t *testing.T) {
	values := []float64{0, 0, 2, 2, 2, 0, 2, 2, 2, 2}
	s := FromValues(values)

	frame, ok := s.FindThresholdCrossing(1, 3, true)
	if !ok || frame != 2 {
		t.Errorf("crossing = (%d, %v), want (2, true)", frame, ok)
	}

	// Breaking one sample inside the earliest run pushes the result to the
	// next valid run.
	broken := append([]float64(nil), values...)
	broken[3] = 1
	s2 := FromValues(broken)
	frame, ok = s2.FindThresholdCrossing(1, 3, true)
	if !ok || frame != 6 {
		t.Errorf("crossing after break = (%d, %v), want (6, true)", frame, ok)
	}

	if _, ok := s.FindThresholdCrossing(5, 1, true); ok {
		t.Error("expected no crossing above 5")
	}

	frame, ok = s.FindThresholdCrossing(1, 2, false)
	if !ok || frame != 0 {
		t.Errorf("below crossing = (%d, %v), want (0, true)", frame, ok)
	}
}

func TestFindPeak(t *testing.T) {
	s := FromValues([]float64{1, 5, 3, 5, 0})

	frame, value := s.FindPeak(true)
	if frame != 1 || value != 5 {
		t.Errorf("FindPeak(true) = (%d, %v), want (1, 5)", frame, value)
	}
	frame, value = s.FindPeak(false)
	if frame != 4 || value != 0 {
		t.Errorf("FindPeak(false) = (%d, %v), want (4, 0)", frame, value)
	}

	empty := New[float64]()
	if frame, _ := empty.FindPeak(true); frame != -1 {
		t.Errorf("FindPeak on empty = %d, want -1", frame)
	}
}

func TestFindDerivativePeak(t *testing.T) {
	s := FromValues([]float64{0, 1, 5, 6})

	frame, value := s.FindDerivativePeak(true)
	if frame != 2 || value != 4 {
		t.Errorf("FindDerivativePeak(true) = (%d, %v), want (2, 4)", frame, value)
	}

	short := FromValues([]float64{1})
	if frame, _ := short.FindDerivativePeak(true); frame != -1 {
		t.Errorf("FindDerivativePeak on short series = %d, want -1", frame)
	}
}

func TestProminence(t *testing.T) {
	// Peak at frame 3 (value 4) flanked by minima 1 (left) and 2 (right
	// before the higher sample at frame 6).
	s := FromValues([]float64{3, 1, 2, 4, 2, 3, 5})

	if got := s.Prominence(3); got != 2 {
		t.Errorf("Prominence(3) = %v, want 2", got)
	}
	// Global maximum walks to both edges.
	if got := s.Prominence(6); got != 4 {
		t.Errorf("Prominence(6) = %v, want 4", got)
	}
	if got := s.Prominence(10); got != 0 {
		t.Errorf("Prominence out of range = %v, want 0", got)
	}
}

func TestIntSeries(t *testing.T) {
	s := FromValues([]int{1, 3, 6})
	if got := s.Derivative(); got != 3 {
		t.Errorf("int Derivative() = %d, want 3", got)
	}
	if got := s.Mean(); math.Abs(got-10.0/3.0) > 1e-12 {
		t.Errorf("int Mean() = %v", got)
	}
}
