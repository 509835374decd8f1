// Package probe drives the metrics, event-detection and prediction
// machinery over cheap reduced-fidelity simulation runs so that expensive
// full-resolution renders can be accepted or rejected up front.
package probe

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mkarlden/swingsync/internal/analysis"
	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
	"github.com/mkarlden/swingsync/internal/predict"
)

// Score names carried in SimulationScore maps.
const (
	ScoreBoomQuality   = "boom_quality"
	ScoreSignalQuality = "signal_quality"
	ScoreFinalVariance = "final_variance"
	ScoreUniformity    = "uniformity"
)

// ErrFinalized indicates frames fed after FinalizePhase.
var ErrFinalized = errors.New("probe: phase already finalized")

// PhaseConfig fixes one probe phase. Phase 1 is physics-only; an optional
// phase 2 attaches low-res rendering and re-registers the GPU metrics.
type PhaseConfig struct {
	Name          string
	Pendulums     int
	Frames        int
	MaxDt         float64
	Render        bool
	FrameDuration float64

	// BoomMetric selects the series offline boom detection runs on.
	// Empty skips detection entirely: the boom frame stays -1.
	BoomMetric string
	Boom       predict.FrameParams

	Analyzer analysis.Config
	Events   []events.Criteria
	Targets  []predict.Target
	Filter   Filter
}

// SimulationScore maps score names to values for the batch generator.
type SimulationScore map[string]float64

// PhaseResults is the finalized outcome of one probe phase.
type PhaseResults struct {
	Name      string
	Completed bool
	Passed    bool
	Reason    string
	Frames    int

	BoomFrame   int
	BoomSeconds float64
	ChaosFrame  int

	FinalVariance   float64
	FinalUniformity float64

	// Spectral shape of the probed metric series: DominantHz is the
	// strongest non-DC frequency, DivergenceRate the fitted exponential
	// growth rate. Zero means the series was too short or flat to measure.
	DominantHz     float64
	DivergenceRate float64

	Scores      SimulationScore
	Predictions []predict.Result
	Warnings    []string
}

// Pipeline feeds per-frame measurements into one collector/detector/analyzer
// set and finalizes detection, analysis and filtering for a phase. The same
// pipeline instance is reused sequentially across phases via Reset; it is
// driven from a single goroutine.
type Pipeline struct {
	cfg PhaseConfig

	collector *metrics.Collector
	detector  *events.Detector
	analyzer  *analysis.BoomAnalyzer

	frame     int
	frameOpen bool
	finalized bool

	log *logrus.Entry
}

func NewPipeline(cfg PhaseConfig) *Pipeline {
	p := &Pipeline{
		collector: metrics.NewCollector(),
		detector:  events.NewDetector(),
	}
	p.configure(cfg)
	return p
}

func (p *Pipeline) configure(cfg PhaseConfig) {
	if cfg.FrameDuration <= 0 {
		cfg.FrameDuration = 1.0 / 60.0
	}
	if cfg.Analyzer.Metric == "" {
		metric := cfg.BoomMetric
		if metric == "" {
			metric = metrics.Variance
		}
		fd := cfg.Analyzer.FrameDuration
		cfg.Analyzer = analysis.DefaultConfig(metric)
		cfg.Analyzer.FrameDuration = fd
	}
	if cfg.Analyzer.FrameDuration <= 0 {
		cfg.Analyzer.FrameDuration = cfg.FrameDuration
	}
	p.cfg = cfg
	p.log = logrus.WithField("phase", cfg.Name)

	p.collector.RegisterPhysics()
	if cfg.Render {
		p.collector.RegisterGPU()
	}

	crits := cfg.Events
	if len(crits) == 0 {
		crits = defaultCriteria()
	}
	for _, crit := range crits {
		p.detector.Register(crit)
	}

	p.analyzer = analysis.NewBoomAnalyzer(cfg.Analyzer)
}

// defaultCriteria is the stock boom/chaos pair used when a phase does not
// configure its own events.
func defaultCriteria() []events.Criteria {
	return []events.Criteria{
		{Event: events.Boom, Metric: metrics.Variance, Threshold: 0.5, ConfirmFrames: 5},
		{Event: events.Chaos, Metric: metrics.Variance, Threshold: 2.0, ConfirmFrames: 10},
	}
}

// Collector exposes the phase collector for exports and reports.
func (p *Pipeline) Collector() *metrics.Collector { return p.collector }

// Detector exposes the phase event detector.
func (p *Pipeline) Detector() *events.Detector { return p.detector }

// Frame returns how many frames have been started.
func (p *Pipeline) Frame() int { return p.frame }

// FeedStates ingests one frame of full per-pendulum state. The pipeline
// closes the previous frame (flushing its metrics and running the event
// detector) before opening the next, so a render-phase caller can still
// attach GPU measurements to the frame after the physics write.
func (p *Pipeline) FeedStates(states []metrics.BodyState) error {
	if err := p.openFrame(); err != nil {
		return err
	}
	return p.collector.UpdateFromStates(states)
}

// FeedAngles ingests one frame of raw angle pairs. Position-derived metrics
// are unavailable on this path.
func (p *Pipeline) FeedAngles(angle1s, angle2s []float64) error {
	if err := p.openFrame(); err != nil {
		return err
	}
	return p.collector.UpdateFromAngles(angle1s, angle2s)
}

// FeedGPUFrame attaches renderer measurements to the currently open frame.
func (p *Pipeline) FeedGPUFrame(stats metrics.GPUFrameStats) error {
	if p.finalized {
		return ErrFinalized
	}
	if !p.cfg.Render {
		return fmt.Errorf("probe: phase %q has no render attached", p.cfg.Name)
	}
	if !p.frameOpen {
		return metrics.ErrNoOpenFrame
	}
	return p.collector.SetGPUFrame(stats)
}

func (p *Pipeline) openFrame() error {
	if p.finalized {
		return ErrFinalized
	}
	if p.frameOpen {
		if err := p.closeFrame(); err != nil {
			return err
		}
	}
	if err := p.collector.BeginFrame(p.frame); err != nil {
		return err
	}
	p.frameOpen = true
	p.frame++
	return nil
}

func (p *Pipeline) closeFrame() error {
	if err := p.collector.EndFrame(); err != nil {
		return err
	}
	p.frameOpen = false
	p.detector.Update(p.collector, p.cfg.FrameDuration)
	return nil
}

// FinalizePhase flushes the last frame, runs offline boom detection and
// analysis, evaluates the prediction targets and the phase filter.
func (p *Pipeline) FinalizePhase() (*PhaseResults, error) {
	if p.finalized {
		return nil, ErrFinalized
	}
	if p.frameOpen {
		if err := p.closeFrame(); err != nil {
			return nil, err
		}
	}
	p.finalized = true

	res := &PhaseResults{
		Name:        p.cfg.Name,
		Completed:   p.cfg.Frames <= 0 || p.frame >= p.cfg.Frames,
		Frames:      p.frame,
		BoomFrame:   -1,
		BoomSeconds: -1,
		ChaosFrame:  -1,
		Scores:      make(SimulationScore),
	}

	// Offline boom detection overrides the online state machine: the
	// detected frame is injected as a confirmed event so analyzers and
	// filters see one consistent boom.
	if p.cfg.BoomMetric != "" {
		if s, ok := p.collector.Series(p.cfg.BoomMetric); ok {
			fd := predict.NewFrameDetector(p.cfg.Boom, p.cfg.FrameDuration)
			frame, seconds := fd.Detect(s)
			if frame >= 0 {
				p.detector.Inject(events.Boom, frame, s.At(frame), p.cfg.FrameDuration)
				p.log.WithFields(logrus.Fields{
					"frame":   frame,
					"seconds": seconds,
					"method":  p.cfg.Boom.Method.String(),
				}).Debug("probe: boom detected offline")
			}
		}
	}

	if ev, ok := p.detector.Event(events.Boom); ok {
		res.BoomFrame = ev.Frame
		res.BoomSeconds = ev.Seconds
	}
	if ev, ok := p.detector.Event(events.Chaos); ok {
		res.ChaosFrame = ev.Frame
	}

	if err := p.analyzer.Analyze(p.collector, p.detector); err != nil {
		return nil, fmt.Errorf("probe: analyze phase %q: %w", p.cfg.Name, err)
	}
	if p.analyzer.HasResults() {
		res.Scores[ScoreBoomQuality] = p.analyzer.Score()
		res.Warnings = append(res.Warnings, p.analyzer.Results().Warnings...)
	}

	targets := p.cfg.Targets
	if len(targets) == 0 {
		targets = p.defaultTargets()
	}
	res.Predictions = predict.NewEvaluator(p.cfg.FrameDuration).Evaluate(targets, p.collector, p.detector)
	for _, pr := range res.Predictions {
		if pr.Kind == predict.KindScore && pr.Valid() {
			res.Scores[pr.Target] = pr.Score
		}
	}

	res.FinalVariance = p.collector.Value(metrics.Variance)
	res.FinalUniformity = p.collector.Value(metrics.CircularSpread)
	res.Scores[ScoreFinalVariance] = res.FinalVariance
	res.Scores[ScoreUniformity] = res.FinalUniformity

	if s, ok := p.collector.Series(p.cfg.Analyzer.Metric); ok {
		if hz, ok := analysis.DominantFrequency(s, p.cfg.FrameDuration); ok {
			res.DominantHz = hz
		}
		if rate, ok := analysis.DivergenceRate(s, p.cfg.FrameDuration); ok {
			res.DivergenceRate = rate
		}
	}

	res.Passed, res.Reason = p.cfg.Filter.Evaluate(res, p.collector, p.detector)

	p.log.WithFields(logrus.Fields{
		"frames":     res.Frames,
		"boom_frame": res.BoomFrame,
		"passed":     res.Passed,
		"reason":     res.Reason,
	}).Info("probe: phase finalized")

	return res, nil
}

// defaultTargets is the stock boom/chaos/boom_quality set.
func (p *Pipeline) defaultTargets() []predict.Target {
	boomParams := p.cfg.Boom
	metric := p.cfg.BoomMetric
	if metric == "" {
		metric = metrics.Variance
	}
	analyzerCfg := p.cfg.Analyzer
	if analyzerCfg.Metric == "" {
		analyzerCfg.Metric = metric
	}
	return []predict.Target{
		{Name: events.Boom, Kind: predict.KindFrame, Metric: metric, Frame: boomParams},
		{Name: events.Chaos, Kind: predict.KindFrame, Metric: metric, Frame: predict.FrameParams{Method: predict.MethodMaxValue}},
		{Name: ScoreBoomQuality, Kind: predict.KindScore, Score: predict.ScoreParams{
			Method:   predict.ScoreComposite,
			Analysis: analyzerCfg,
			Weights:  analysis.BoomWeights,
		}},
	}
}

// Reset rearms the pipeline for the next phase, keeping registrations but
// dropping all recorded data. The new config may attach rendering.
func (p *Pipeline) Reset(cfg PhaseConfig) {
	p.collector.Reset()
	p.detector.Reset()
	p.frame = 0
	p.frameOpen = false
	p.finalized = false
	p.configure(cfg)
}
