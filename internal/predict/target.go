package predict

import (
	"math"

	"github.com/mkarlden/swingsync/internal/analysis"
	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
)

// Kind tags a prediction target as frame-type or score-type.
type Kind int

const (
	KindFrame Kind = iota
	KindScore
)

func (k Kind) String() string {
	if k == KindScore {
		return "score"
	}
	return "frame"
}

// Target is one named thing to predict. Frame targets carry detection
// parameters and the metric to detect on; score targets carry analysis
// parameters.
type Target struct {
	Name   string
	Kind   Kind
	Metric string
	Frame  FrameParams
	Score  ScoreParams
}

// ScoreParams tunes one score prediction.
type ScoreParams struct {
	Method   ScoreMethod
	Analysis analysis.Config
	// Weights applies to ScoreComposite; the zero value selects the
	// standard 0.40/0.35/0.25 blend.
	Weights analysis.Weights
}

// Result mirrors its target's kind: frame/seconds for frame targets, score
// for score targets.
type Result struct {
	Target  string
	Kind    Kind
	Frame   int
	Seconds float64
	Score   float64
}

// Valid reports whether the prediction is usable: a non-negative frame for
// frame targets, a score inside [0,1] for score targets.
func (r Result) Valid() bool {
	if r.Kind == KindFrame {
		return r.Frame >= 0
	}
	return r.Score >= 0 && r.Score <= 1
}

// ScorePredictor wraps one analyzer run at a given reference frame and
// exposes a single score output.
type ScorePredictor struct {
	params ScoreParams
}

func NewScorePredictor(params ScoreParams) *ScorePredictor {
	return &ScorePredictor{params: params}
}

// Predict runs the analysis and returns the selected score clamped to
// [0,1], or -1 when the analyzer produced no results (unset metric or empty
// series), which callers observe via Result.Valid.
func (p *ScorePredictor) Predict(c *metrics.Collector, d *events.Detector, referenceFrame int) float64 {
	cfg := p.params.Analysis
	if referenceFrame >= 0 {
		cfg.ReferenceFrame = referenceFrame
	}

	weights := p.params.Weights
	if weights == (analysis.Weights{}) {
		weights = analysis.SignalWeights
	}
	a := analysis.NewWeightedAnalyzer(cfg, weights)
	if err := a.Analyze(c, d); err != nil {
		return -1
	}
	if !a.HasResults() {
		return -1
	}

	var score float64
	switch p.params.Method {
	case ScoreClarity:
		score = a.Results().Clarity
	case ScoreSustain:
		score = a.Results().PostRefAreaNorm
	default:
		score = a.Score()
	}
	return math.Min(math.Max(score, 0), 1)
}
