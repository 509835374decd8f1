// Package analysis post-processes finished metric series: peak finding with
// prominence, peak-clarity scoring against earlier competitors, and
// sustained-interest measurement after a reference frame.
package analysis

import (
	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
)

// Analyzer is the closed capability set shared by the signal, boom and
// causticness analyzers.
type Analyzer interface {
	// Analyze runs once over the completed series. It resets internally
	// first, so repeated calls are idempotent. An unset metric name leaves
	// the analyzer in the no-results state without error.
	Analyze(c *metrics.Collector, d *events.Detector) error
	// Score is the composite quality score in [0,1], zero without results.
	Score() float64
	HasResults() bool
	Reset()
	// JSON renders the results for export; "null" without results.
	JSON() ([]byte, error)
}

// Weights blend the three quality components into one score.
type Weights struct {
	Clarity float64 `json:"clarity"`
	Peak    float64 `json:"peak"`
	Sustain float64 `json:"sustain"`
}

// The blend constants are part of the observable contract.
var (
	SignalWeights      = Weights{Clarity: 0.40, Peak: 0.35, Sustain: 0.25}
	BoomWeights        = Weights{Clarity: 0.5, Peak: 0.3, Sustain: 0.2}
	CausticnessWeights = Weights{Clarity: 0.25, Peak: 0.25, Sustain: 0.5}
)

// Config tunes one analyzer run.
type Config struct {
	// Metric names the series to analyze. Empty means "not configured":
	// Analyze records no results and reports no error.
	Metric string
	// FrameDuration is seconds per frame. Non-positive values degrade to
	// the 1/60 fallback with a one-time warning per reset cycle.
	FrameDuration float64
	// ReferenceFrame overrides the reference resolution; negative means
	// automatic (confirmed boom, else global peak frame).
	ReferenceFrame int
	// QualityThreshold counts frames at or above this value.
	QualityThreshold float64
	// MinPeakHeightFrac discards local maxima below this fraction of the
	// global maximum.
	MinPeakHeightFrac float64
	// MinProminenceFrac discards local maxima whose prominence is below
	// this fraction of the global maximum.
	MinProminenceFrac float64
	// MinPeakSeparation merges peaks closer than this many seconds,
	// keeping the higher one.
	MinPeakSeparation float64
	// PostWindowFrames is the width of the post-reference sustain window.
	PostWindowFrames int
}

// DefaultConfig returns the analyzer tuning used by probe phases.
func DefaultConfig(metric string) Config {
	return Config{
		Metric:            metric,
		ReferenceFrame:    -1,
		QualityThreshold:  0.5,
		MinPeakHeightFrac: 0.3,
		MinProminenceFrac: 0.1,
		MinPeakSeparation: 0.5,
		PostWindowFrames:  50,
	}
}

// Peak is one detected local maximum.
type Peak struct {
	Frame      int     `json:"frame"`
	Value      float64 `json:"value"`
	Seconds    float64 `json:"seconds"`
	Prominence float64 `json:"prominence"`
}

// Results aggregates one analysis pass.
type Results struct {
	Metric               string   `json:"metric"`
	Frames               int      `json:"frames"`
	ReferenceFrame       int      `json:"reference_frame"`
	PeakFrame            int      `json:"peak_frame"`
	PeakValue            float64  `json:"peak_value"`
	Mean                 float64  `json:"mean"`
	Total                float64  `json:"total"`
	FramesAboveThreshold int      `json:"frames_above_threshold"`
	Peaks                []Peak   `json:"peaks"`
	Clarity              float64  `json:"clarity"`
	PostRefAverage       float64  `json:"post_ref_average"`
	PostRefPeak          float64  `json:"post_ref_peak"`
	PostRefAreaNorm      float64  `json:"post_ref_area_norm"`
	Warnings             []string `json:"warnings,omitempty"`
}
