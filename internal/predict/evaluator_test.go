package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlden/swingsync/internal/analysis"
	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
)

// recordVariance feeds the values into a fresh collector under "variance".
func recordVariance(t *testing.T, values []float64) *metrics.Collector {
	t.Helper()
	c := metrics.NewCollector()
	c.Register(metrics.Variance, metrics.TypePhysics)
	for frame, v := range values {
		require.NoError(t, c.BeginFrame(frame))
		require.NoError(t, c.Set(metrics.Variance, v))
		require.NoError(t, c.EndFrame())
	}
	return c
}

// evaluatorSignal rises early past the threshold, decays, then peaks late:
// threshold-cross and max-value detection land on very different frames,
// and the signal after those frames differs sharply.
func evaluatorSignal() []float64 {
	values := make([]float64, 200)
	for i := 10; i < 60; i++ {
		values[i] = 2.0
	}
	for i := 150; i < 200; i++ {
		values[i] = 5.0
	}
	return values
}

func scoreTarget() Target {
	cfg := analysis.DefaultConfig(metrics.Variance)
	cfg.FrameDuration = dt
	return Target{
		Name: "boom_quality",
		Kind: KindScore,
		Score: ScoreParams{
			Method:   ScoreSustain,
			Analysis: cfg,
		},
	}
}

func boomTarget(method Method) Target {
	return Target{
		Name:   events.Boom,
		Kind:   KindFrame,
		Metric: metrics.Variance,
		Frame: FrameParams{
			Method:        method,
			Threshold:     1.0,
			ConfirmFrames: 3,
		},
	}
}

func TestEvaluateOrderAndReference(t *testing.T) {
	c := recordVariance(t, evaluatorSignal())
	e := NewEvaluator(dt)

	// Frame targets are evaluated first even when listed last.
	results := e.Evaluate([]Target{scoreTarget(), boomTarget(MethodMaxValue)}, c, nil)
	require.Len(t, results, 2)
	assert.Equal(t, events.Boom, results[0].Target)
	assert.Equal(t, KindFrame, results[0].Kind)
	assert.Equal(t, "boom_quality", results[1].Target)

	maxScore := results[1].Score
	assert.True(t, results[1].Valid())

	// Swapping the boom detection method changes the reference frame the
	// score target sees, which must change its output.
	results = e.Evaluate([]Target{scoreTarget(), boomTarget(MethodThresholdCross)}, c, nil)
	require.Len(t, results, 2)
	assert.Equal(t, 10, results[0].Frame, "threshold method finds the early run")
	crossScore := results[1].Score

	assert.NotEqual(t, maxScore, crossScore,
		"score target must follow the boom target's frame")
	// Measured from frame 150 the signal holds at peak: sustain 1.0.
	// Measured from frame 10 it decays to zero: sustain well below.
	assert.InDelta(t, 1.0, maxScore, 1e-9)
	assert.Less(t, crossScore, 0.5)
}

func TestEvaluateMissingMetric(t *testing.T) {
	c := metrics.NewCollector()
	e := NewEvaluator(dt)

	results := e.Evaluate([]Target{boomTarget(MethodMaxValue)}, c, nil)
	require.Len(t, results, 1)
	assert.Equal(t, -1, results[0].Frame)
	assert.False(t, results[0].Valid())
}

func TestScorePredictorNoResults(t *testing.T) {
	c := metrics.NewCollector()
	p := NewScorePredictor(ScoreParams{Method: ScoreComposite, Analysis: analysis.Config{}})

	score := p.Predict(c, nil, -1)
	assert.Equal(t, -1.0, score)
	r := Result{Target: "x", Kind: KindScore, Frame: -1, Score: score}
	assert.False(t, r.Valid())
}
