package analysis

import (
	"encoding/json"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
	"github.com/mkarlden/swingsync/internal/series"
)

const fallbackFrameDuration = 1.0 / 60.0

// SignalAnalyzer is the shared analysis engine. The boom and causticness
// analyzers wrap it with their own weights and default metric.
type SignalAnalyzer struct {
	cfg     Config
	weights Weights

	res            *Results
	warnedFallback bool
}

func NewSignalAnalyzer(cfg Config) *SignalAnalyzer {
	return &SignalAnalyzer{cfg: cfg, weights: SignalWeights}
}

// NewWeightedAnalyzer overrides the default 0.40/0.35/0.25 blend.
func NewWeightedAnalyzer(cfg Config, w Weights) *SignalAnalyzer {
	return &SignalAnalyzer{cfg: cfg, weights: w}
}

// Config returns the analyzer's configuration.
func (a *SignalAnalyzer) Config() Config { return a.cfg }

// SetReferenceFrame overrides the reference resolution for the next run.
func (a *SignalAnalyzer) SetReferenceFrame(frame int) {
	a.cfg.ReferenceFrame = frame
}

// Analyze runs the full pass over the configured metric. The detector may be
// nil, in which case the boom-event reference fallback is skipped.
func (a *SignalAnalyzer) Analyze(c *metrics.Collector, d *events.Detector) error {
	a.Reset()

	if a.cfg.Metric == "" {
		return nil
	}
	s, ok := c.Series(a.cfg.Metric)
	if !ok || s.Empty() {
		return nil
	}

	res := &Results{
		Metric:    a.cfg.Metric,
		Frames:    s.Len(),
		PeakFrame: -1,
	}

	dt := a.cfg.FrameDuration
	if dt <= 0 {
		dt = fallbackFrameDuration
		if !a.warnedFallback {
			a.warnedFallback = true
			logrus.WithField("metric", a.cfg.Metric).
				Warn("analysis: frame duration unset, assuming 1/60s")
		}
		res.Warnings = append(res.Warnings, "frame duration unset, assuming 1/60s")
	}

	// Single scan: global max, totals, threshold count.
	for i := 0; i < s.Len(); i++ {
		v := s.At(i)
		res.Total += v
		if res.PeakFrame < 0 || v > res.PeakValue {
			res.PeakFrame = i
			res.PeakValue = v
		}
		if v >= a.cfg.QualityThreshold {
			res.FramesAboveThreshold++
		}
	}
	res.Mean = res.Total / float64(s.Len())

	res.Peaks = findPeaks(s, res.PeakValue, a.cfg, dt)
	res.Clarity = clarity(res.Peaks)

	res.ReferenceFrame = a.resolveReference(d, res.PeakFrame)

	a.measurePostReference(s, res, dt)

	a.res = res
	return nil
}

// resolveReference picks the frame sustain is measured from: explicit
// configuration first, then a confirmed boom event, then the global peak.
func (a *SignalAnalyzer) resolveReference(d *events.Detector, peakFrame int) int {
	if a.cfg.ReferenceFrame >= 0 {
		return a.cfg.ReferenceFrame
	}
	if d != nil {
		if ev, ok := d.Event(events.Boom); ok {
			return ev.Frame
		}
	}
	return peakFrame
}

func (a *SignalAnalyzer) measurePostReference(s *series.Series[float64], res *Results, dt float64) {
	window := a.cfg.PostWindowFrames
	if window <= 0 {
		window = DefaultConfig("").PostWindowFrames
	}

	ref := res.ReferenceFrame
	if ref < 0 || ref >= s.Len() {
		return
	}

	end := ref + window
	if end > s.Len() {
		end = s.Len()
	}

	sum := 0.0
	peak := 0.0
	for i := ref; i < end; i++ {
		v := s.At(i)
		sum += v
		if v > peak {
			peak = v
		}
	}
	count := end - ref
	if count == 0 {
		return
	}

	res.PostRefAverage = sum / float64(count)
	res.PostRefPeak = peak

	// Area normalized against the signal holding at the global peak value
	// for the whole configured window.
	maxArea := float64(window) * res.PeakValue * dt
	if maxArea > 0 {
		norm := sum * dt / maxArea
		res.PostRefAreaNorm = math.Min(math.Max(norm, 0), 1)
	}
}

// Score blends clarity, capped peak value and sustain with the analyzer's
// weights. Zero without results.
func (a *SignalAnalyzer) Score() float64 {
	if a.res == nil {
		return 0
	}
	peak := math.Min(a.res.PeakValue, 1.0)
	return a.weights.Clarity*a.res.Clarity + a.weights.Peak*peak + a.weights.Sustain*a.res.PostRefAreaNorm
}

func (a *SignalAnalyzer) HasResults() bool { return a.res != nil }

// Results returns the last run's results, nil before any successful run.
func (a *SignalAnalyzer) Results() *Results { return a.res }

// Reset drops results and re-arms the frame-duration warning.
func (a *SignalAnalyzer) Reset() {
	a.res = nil
	a.warnedFallback = false
}

func (a *SignalAnalyzer) JSON() ([]byte, error) {
	return json.Marshal(a.res)
}
