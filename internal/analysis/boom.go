package analysis

import "github.com/mkarlden/swingsync/internal/metrics"

// BoomAnalyzer scores how cleanly the chaotic onset stands out in the
// divergence signal. Its 0.5/0.3/0.2 blend weights clarity over sustain:
// a boom that dominates everything before it syncs well even if the chaos
// settles quickly.
type BoomAnalyzer struct {
	*SignalAnalyzer
}

func NewBoomAnalyzer(cfg Config) *BoomAnalyzer {
	if cfg.Metric == "" {
		cfg.Metric = metrics.Variance
	}
	return &BoomAnalyzer{NewWeightedAnalyzer(cfg, BoomWeights)}
}

// CausticnessAnalyzer measures sustained visual interest after the boom,
// weighting sustain over clarity: caustic structure should persist through
// the post-drop window.
type CausticnessAnalyzer struct {
	*SignalAnalyzer
}

func NewCausticnessAnalyzer(cfg Config) *CausticnessAnalyzer {
	if cfg.Metric == "" {
		cfg.Metric = metrics.Causticness
	}
	return &CausticnessAnalyzer{NewWeightedAnalyzer(cfg, CausticnessWeights)}
}

var (
	_ Analyzer = (*SignalAnalyzer)(nil)
	_ Analyzer = (*BoomAnalyzer)(nil)
	_ Analyzer = (*CausticnessAnalyzer)(nil)
)
