// Package config loads and saves the yaml run configuration shared by the
// probe, batch and reporting commands.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkarlden/swingsync/internal/analysis"
	"github.com/mkarlden/swingsync/internal/batch"
	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
	"github.com/mkarlden/swingsync/internal/predict"
	"github.com/mkarlden/swingsync/internal/probe"
)

const (
	DefaultFrameRate    = 60.0
	DefaultFrames       = 600
	DefaultRenderFrames = 300
	DefaultPendulums    = 64
	DefaultPerturbation = 1e-4
	DefaultMaxDt        = 1e-3
	DefaultSlots        = 4
	DefaultMaxRetries   = 3
	DefaultThreshold    = 0.5
	DefaultConfirm      = 5
)

type Config struct {
	FrameRate float64 `yaml:"frame_rate"`
	Seed      int64   `yaml:"seed"`

	Probe   ProbeConfig    `yaml:"probe"`
	Batch   BatchConfig    `yaml:"batch"`
	Events  []EventConfig  `yaml:"events"`
	Targets []TargetConfig `yaml:"targets"`
	Filter  []FilterConfig `yaml:"filter"`
}

type ProbeConfig struct {
	Pendulums    int     `yaml:"pendulums"`
	Frames       int     `yaml:"frames"`
	RenderFrames int     `yaml:"render_frames"`
	Perturbation float64 `yaml:"perturbation"`
	MaxDt        float64 `yaml:"max_dt"`

	BoomMetric string          `yaml:"boom_metric"`
	Boom       DetectionConfig `yaml:"boom"`
}

// DetectionConfig is the yaml form of predict.FrameParams.
type DetectionConfig struct {
	Method            string  `yaml:"method"`
	Threshold         float64 `yaml:"threshold"`
	ConfirmFrames     int     `yaml:"confirm_frames"`
	PeakHeightFrac    float64 `yaml:"peak_height_frac"`
	MinProminenceFrac float64 `yaml:"min_prominence_frac"`
	SmoothWindow      int     `yaml:"smooth_window"`
	OffsetSeconds     float64 `yaml:"offset_seconds"`
}

type BatchConfig struct {
	Slots      int     `yaml:"slots"`
	MaxRetries int     `yaml:"max_retries"`
	AngleMin   float64 `yaml:"angle_min"`
	AngleMax   float64 `yaml:"angle_max"`
}

type EventConfig struct {
	Event         string  `yaml:"event"`
	Metric        string  `yaml:"metric"`
	Threshold     float64 `yaml:"threshold"`
	ConfirmFrames int     `yaml:"confirm_frames"`
	Below         bool    `yaml:"below"`
	OnDerivative  bool    `yaml:"on_derivative"`
}

type TargetConfig struct {
	Name      string          `yaml:"name"`
	Kind      string          `yaml:"kind"` // frame | score
	Metric    string          `yaml:"metric"`
	Detection DetectionConfig `yaml:"detection"`
	Score     ScoreConfig     `yaml:"score"`
}

type ScoreConfig struct {
	Method string `yaml:"method"` // clarity | sustain | composite
	Metric string `yaml:"metric"`
}

type FilterConfig struct {
	Kind string `yaml:"kind"` // event_required | event_timing | metric_range | score_threshold

	Event      string  `yaml:"event,omitempty"`
	MinSeconds float64 `yaml:"min_seconds,omitempty"`
	MaxSeconds float64 `yaml:"max_seconds,omitempty"`

	Metric string  `yaml:"metric,omitempty"`
	Min    float64 `yaml:"min,omitempty"`
	Max    float64 `yaml:"max,omitempty"`

	Score    string  `yaml:"score,omitempty"`
	MinScore float64 `yaml:"min_score,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		FrameRate: DefaultFrameRate,
		Probe: ProbeConfig{
			Pendulums:    DefaultPendulums,
			Frames:       DefaultFrames,
			RenderFrames: DefaultRenderFrames,
			Perturbation: DefaultPerturbation,
			MaxDt:        DefaultMaxDt,
			BoomMetric:   metrics.Variance,
			Boom: DetectionConfig{
				Method:        "threshold_cross",
				Threshold:     DefaultThreshold,
				ConfirmFrames: DefaultConfirm,
			},
		},
		Batch: BatchConfig{
			Slots:      DefaultSlots,
			MaxRetries: DefaultMaxRetries,
		},
		Events: []EventConfig{
			{Event: events.Boom, Metric: metrics.Variance, Threshold: DefaultThreshold, ConfirmFrames: DefaultConfirm},
			{Event: events.Chaos, Metric: metrics.Variance, Threshold: 2.0, ConfirmFrames: 10},
		},
		Filter: []FilterConfig{
			{Kind: "event_required", Event: events.Boom},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %f", c.FrameRate)
	}
	if c.Probe.Frames <= 0 {
		return fmt.Errorf("probe.frames must be positive, got %d", c.Probe.Frames)
	}
	if c.Probe.Pendulums <= 0 {
		return fmt.Errorf("probe.pendulums must be positive, got %d", c.Probe.Pendulums)
	}
	if c.Batch.Slots <= 0 {
		return fmt.Errorf("batch.slots must be positive, got %d", c.Batch.Slots)
	}
	if c.Batch.MaxRetries < 0 {
		return fmt.Errorf("batch.max_retries must not be negative, got %d", c.Batch.MaxRetries)
	}
	return nil
}

// FrameDuration derives the per-frame time step from the frame rate.
func (c *Config) FrameDuration() float64 {
	return 1.0 / c.FrameRate
}

// PhysicsPhase builds the phase-1 probe configuration.
func (c *Config) PhysicsPhase() (probe.PhaseConfig, error) {
	return c.phase("physics", c.Probe.Frames, false)
}

// RenderPhase builds the phase-2 probe configuration.
func (c *Config) RenderPhase() (probe.PhaseConfig, error) {
	frames := c.Probe.RenderFrames
	if frames <= 0 {
		frames = c.Probe.Frames
	}
	return c.phase("render", frames, true)
}

func (c *Config) phase(name string, frames int, render bool) (probe.PhaseConfig, error) {
	boom, err := c.Probe.Boom.FrameParams()
	if err != nil {
		return probe.PhaseConfig{}, fmt.Errorf("probe.boom: %w", err)
	}

	crits := make([]events.Criteria, 0, len(c.Events))
	for _, e := range c.Events {
		crits = append(crits, e.Criteria())
	}

	targets, err := c.targets()
	if err != nil {
		return probe.PhaseConfig{}, err
	}

	filter, err := c.filter()
	if err != nil {
		return probe.PhaseConfig{}, err
	}

	return probe.PhaseConfig{
		Name:          name,
		Pendulums:     c.Probe.Pendulums,
		Frames:        frames,
		MaxDt:         c.Probe.MaxDt,
		Render:        render,
		FrameDuration: c.FrameDuration(),
		BoomMetric:    c.Probe.BoomMetric,
		Boom:          boom,
		Events:        crits,
		Targets:       targets,
		Filter:        filter,
	}, nil
}

// GeneratorConfig builds the batch generator configuration.
func (c *Config) GeneratorConfig() (batch.Config, error) {
	physics, err := c.PhysicsPhase()
	if err != nil {
		return batch.Config{}, err
	}
	render, err := c.RenderPhase()
	if err != nil {
		return batch.Config{}, err
	}
	return batch.Config{
		Slots:        c.Batch.Slots,
		MaxRetries:   c.Batch.MaxRetries,
		Seed:         c.Seed,
		Pendulums:    c.Probe.Pendulums,
		Perturbation: c.Probe.Perturbation,
		MaxDt:        c.Probe.MaxDt,
		AngleMin:     c.Batch.AngleMin,
		AngleMax:     c.Batch.AngleMax,
		Physics:      physics,
		Render:       render,
	}, nil
}

// FrameParams converts the yaml detection block.
func (d DetectionConfig) FrameParams() (predict.FrameParams, error) {
	method := d.Method
	if method == "" {
		method = "max_value"
	}
	m, err := predict.ParseMethod(method)
	if err != nil {
		return predict.FrameParams{}, err
	}
	return predict.FrameParams{
		Method:            m,
		Threshold:         d.Threshold,
		ConfirmFrames:     d.ConfirmFrames,
		PeakHeightFrac:    d.PeakHeightFrac,
		MinProminenceFrac: d.MinProminenceFrac,
		SmoothWindow:      d.SmoothWindow,
		OffsetSeconds:     d.OffsetSeconds,
	}, nil
}

// Criteria converts the yaml event block.
func (e EventConfig) Criteria() events.Criteria {
	dir := events.Above
	if e.Below {
		dir = events.Below
	}
	return events.Criteria{
		Event:         e.Event,
		Metric:        e.Metric,
		Threshold:     e.Threshold,
		ConfirmFrames: e.ConfirmFrames,
		Direction:     dir,
		OnDerivative:  e.OnDerivative,
	}
}

func (c *Config) targets() ([]predict.Target, error) {
	out := make([]predict.Target, 0, len(c.Targets))
	for i, t := range c.Targets {
		switch t.Kind {
		case "frame", "":
			fp, err := t.Detection.FrameParams()
			if err != nil {
				return nil, fmt.Errorf("targets[%d]: %w", i, err)
			}
			out = append(out, predict.Target{
				Name:   t.Name,
				Kind:   predict.KindFrame,
				Metric: t.Metric,
				Frame:  fp,
			})
		case "score":
			method := t.Score.Method
			if method == "" {
				method = "composite"
			}
			sm, err := predict.ParseScoreMethod(method)
			if err != nil {
				return nil, fmt.Errorf("targets[%d]: %w", i, err)
			}
			metric := t.Score.Metric
			if metric == "" {
				metric = t.Metric
			}
			out = append(out, predict.Target{
				Name: t.Name,
				Kind: predict.KindScore,
				Score: predict.ScoreParams{
					Method:   sm,
					Analysis: analysisConfig(metric, c.FrameDuration()),
				},
			})
		default:
			return nil, fmt.Errorf("targets[%d]: unknown kind %q", i, t.Kind)
		}
	}
	return out, nil
}

func analysisConfig(metric string, frameDuration float64) analysis.Config {
	if metric == "" {
		metric = metrics.Variance
	}
	cfg := analysis.DefaultConfig(metric)
	cfg.FrameDuration = frameDuration
	return cfg
}

func (c *Config) filter() (probe.Filter, error) {
	crits := make([]probe.Criterion, 0, len(c.Filter))
	for i, f := range c.Filter {
		crit := probe.Criterion{
			Event:      f.Event,
			MinSeconds: f.MinSeconds,
			MaxSeconds: f.MaxSeconds,
			Metric:     f.Metric,
			Min:        f.Min,
			Max:        f.Max,
			Score:      f.Score,
			MinScore:   f.MinScore,
		}
		switch f.Kind {
		case "event_required":
			crit.Kind = probe.EventRequired
		case "event_timing":
			crit.Kind = probe.EventTimingRange
		case "metric_range":
			crit.Kind = probe.MetricValueRange
		case "score_threshold":
			crit.Kind = probe.ScoreThreshold
		default:
			return probe.Filter{}, fmt.Errorf("filter[%d]: unknown kind %q", i, f.Kind)
		}
		crits = append(crits, crit)
	}
	return probe.Filter{Criteria: crits}, nil
}
