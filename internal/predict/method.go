// Package predict produces frame and score predictions for named targets
// from completed metric series, with deterministic fallbacks when a
// detection method finds nothing.
package predict

import "fmt"

// Method selects how a frame is detected on a metric series.
type Method int

const (
	// MethodMaxValue picks the frame of the global maximum.
	MethodMaxValue Method = iota
	// MethodFirstPeak picks the first local peak clearing a height
	// fraction of the maximum with minimum prominence.
	MethodFirstPeak
	// MethodDerivativePeak picks the steepest rise (central difference,
	// optional moving-average smoothing first).
	MethodDerivativePeak
	// MethodThresholdCross picks the start of the first confirmed run
	// above a threshold.
	MethodThresholdCross
	// MethodAccelerationPeak picks the strongest second-derivative spike.
	MethodAccelerationPeak
)

var methodNames = map[Method]string{
	MethodMaxValue:         "max_value",
	MethodFirstPeak:        "first_peak",
	MethodDerivativePeak:   "derivative_peak",
	MethodThresholdCross:   "threshold_cross",
	MethodAccelerationPeak: "acceleration_peak",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod resolves a config-file method name.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return MethodMaxValue, fmt.Errorf("predict: unknown detection method %q", name)
}

// ScoreMethod selects which analyzer output a score prediction exposes.
type ScoreMethod int

const (
	// ScoreClarity exposes peak clarity.
	ScoreClarity ScoreMethod = iota
	// ScoreSustain exposes the normalized post-reference area.
	ScoreSustain
	// ScoreComposite exposes the weighted quality blend.
	ScoreComposite
)

var scoreMethodNames = map[ScoreMethod]string{
	ScoreClarity:   "clarity",
	ScoreSustain:   "sustain",
	ScoreComposite: "composite",
}

func (m ScoreMethod) String() string {
	if name, ok := scoreMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("score_method(%d)", int(m))
}

// ParseScoreMethod resolves a config-file score method name.
func ParseScoreMethod(name string) (ScoreMethod, error) {
	for m, n := range scoreMethodNames {
		if n == name {
			return m, nil
		}
	}
	return ScoreComposite, fmt.Errorf("predict: unknown score method %q", name)
}
