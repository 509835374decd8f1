package predict

import (
	"math"

	"github.com/mkarlden/swingsync/internal/series"
)

// FrameParams tunes one frame detection.
type FrameParams struct {
	Method Method
	// Threshold and ConfirmFrames drive MethodThresholdCross.
	Threshold     float64
	ConfirmFrames int
	// PeakHeightFrac and MinProminenceFrac drive MethodFirstPeak, as
	// fractions of the global maximum.
	PeakHeightFrac    float64
	MinProminenceFrac float64
	// SmoothWindow is the moving-average half-width applied before the
	// derivative methods; zero disables smoothing.
	SmoothWindow int
	// OffsetSeconds shifts the detected frame, clamped to series bounds.
	OffsetSeconds float64
}

// FrameDetector runs one detection method over a metric series, falling back
// deterministically to simpler methods when nothing qualifies. Detection
// only reports frame -1 when the series itself is too short.
type FrameDetector struct {
	params        FrameParams
	frameDuration float64
}

func NewFrameDetector(params FrameParams, frameDuration float64) *FrameDetector {
	if frameDuration <= 0 {
		frameDuration = 1.0 / 60.0
	}
	return &FrameDetector{params: params, frameDuration: frameDuration}
}

// Detect returns the detected frame and its time in seconds, or (-1, -1)
// when the series carries too little data for any method.
func (d *FrameDetector) Detect(s *series.Series[float64]) (int, float64) {
	if s == nil || s.Len() < 3 {
		return -1, -1
	}

	var frame int
	switch d.params.Method {
	case MethodFirstPeak:
		frame = d.detectFirstPeak(s)
	case MethodDerivativePeak:
		frame = d.detectDerivativePeak(s)
	case MethodThresholdCross:
		frame = d.detectThresholdCross(s)
	case MethodAccelerationPeak:
		frame = d.detectAccelerationPeak(s)
	default:
		frame = d.detectMax(s)
	}

	frame = d.applyOffset(frame, s.Len())
	return frame, float64(frame) * d.frameDuration
}

func (d *FrameDetector) detectMax(s *series.Series[float64]) int {
	frame, _ := s.FindPeak(true)
	return frame
}

func (d *FrameDetector) detectFirstPeak(s *series.Series[float64]) int {
	_, max := s.FindPeak(true)
	minHeight := d.params.PeakHeightFrac * max
	minProm := d.params.MinProminenceFrac * max

	for i := 1; i < s.Len()-1; i++ {
		v := s.At(i)
		if v <= s.At(i-1) || v <= s.At(i+1) {
			continue
		}
		if v < minHeight {
			continue
		}
		if s.Prominence(i) < minProm {
			continue
		}
		return i
	}
	return d.detectMax(s)
}

// detectDerivativePeak finds the frame of steepest rise via central
// difference, optionally over a smoothed copy of the series.
func (d *FrameDetector) detectDerivativePeak(s *series.Series[float64]) int {
	frame := -1
	best := 0.0
	for i := 1; i < s.Len()-1; i++ {
		deriv := (d.sample(s, i+1) - d.sample(s, i-1)) / 2
		if deriv > best {
			best = deriv
			frame = i
		}
	}
	if frame < 0 {
		// Monotonically non-increasing signal: no rise to anchor on.
		return d.detectMax(s)
	}
	return frame
}

func (d *FrameDetector) detectThresholdCross(s *series.Series[float64]) int {
	confirm := d.params.ConfirmFrames
	if confirm < 1 {
		confirm = 1
	}
	frame, ok := s.FindThresholdCrossing(d.params.Threshold, confirm, true)
	if !ok {
		return d.detectMax(s)
	}
	return frame
}

func (d *FrameDetector) detectAccelerationPeak(s *series.Series[float64]) int {
	frame := -1
	best := 0.0
	for i := 1; i < s.Len()-1; i++ {
		accel := d.sample(s, i+1) - 2*d.sample(s, i) + d.sample(s, i-1)
		if accel > best {
			best = accel
			frame = i
		}
	}
	if frame < 0 {
		return d.detectDerivativePeak(s)
	}
	return frame
}

func (d *FrameDetector) sample(s *series.Series[float64], i int) float64 {
	if d.params.SmoothWindow > 0 {
		return s.SmoothedAt(i, d.params.SmoothWindow)
	}
	return s.At(i)
}

func (d *FrameDetector) applyOffset(frame, n int) int {
	if frame < 0 || d.params.OffsetSeconds == 0 {
		return frame
	}
	frame += int(math.Round(d.params.OffsetSeconds / d.frameDuration))
	if frame < 0 {
		return 0
	}
	if frame > n-1 {
		return n - 1
	}
	return frame
}
