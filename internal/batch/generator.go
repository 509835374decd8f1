// Package batch fills render slots by retrying randomized probe runs until
// a simulation passes the acceptance filter.
package batch

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mkarlden/swingsync/internal/metrics"
	"github.com/mkarlden/swingsync/internal/probe"
	"github.com/mkarlden/swingsync/internal/sim"
)

// Renderer supplies per-frame render measurements during the render phase.
// The production renderer lives outside this module; tests wire fakes.
type Renderer interface {
	RenderFrame(frame int, bodies []metrics.BodyState) (metrics.GPUFrameStats, error)
}

// Config fixes one batch run.
type Config struct {
	// Slots is the number of accepted simulations to produce.
	Slots int
	// MaxRetries bounds the rejected attempts per slot beyond the first.
	MaxRetries int
	// Seed drives initial-condition randomization. Zero uses wall time.
	Seed int64

	Pendulums    int
	Perturbation float64
	MaxDt        float64
	// AngleMin/AngleMax bound the randomized shared initial angles.
	// An empty range selects [pi/3, 2pi/3].
	AngleMin float64
	AngleMax float64

	// Physics is the phase-1 probe; Render the optional phase-2 run when a
	// renderer is attached.
	Physics probe.PhaseConfig
	Render  probe.PhaseConfig
}

// SlotResult records the outcome of one slot, keeping the last attempt's
// parameters and phase results.
type SlotResult struct {
	Slot     int
	Accepted bool
	Attempts int
	Reason   string

	Seed           int64
	Theta1, Theta2 float64

	Physics *probe.PhaseResults
	Render  *probe.PhaseResults
}

type Generator struct {
	cfg      Config
	renderer Renderer
	rng      *rand.Rand
	log      *logrus.Entry
}

func NewGenerator(cfg Config, renderer Renderer) *Generator {
	if cfg.Slots < 1 {
		cfg.Slots = 1
	}
	if cfg.Pendulums < 1 {
		cfg.Pendulums = 1
	}
	if cfg.AngleMax <= cfg.AngleMin {
		cfg.AngleMin = math.Pi / 3
		cfg.AngleMax = 2 * math.Pi / 3
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg.Physics.Pendulums = cfg.Pendulums
	cfg.Render.Pendulums = cfg.Pendulums
	cfg.Render.Render = true
	if cfg.Physics.Name == "" {
		cfg.Physics.Name = "physics"
	}
	if cfg.Render.Name == "" {
		cfg.Render.Name = "render"
	}

	return &Generator{
		cfg:      cfg,
		renderer: renderer,
		rng:      rand.New(rand.NewSource(seed)),
		log:      logrus.WithField("component", "batch"),
	}
}

// Run fills every slot sequentially. A context error or a pipeline error
// aborts the batch; filter rejections do not, they consume retries.
func (g *Generator) Run(ctx context.Context) ([]SlotResult, error) {
	pipe := probe.NewPipeline(g.cfg.Physics)
	results := make([]SlotResult, 0, g.cfg.Slots)
	for slot := 0; slot < g.cfg.Slots; slot++ {
		res, err := g.runSlot(ctx, slot, pipe)
		results = append(results, *res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (g *Generator) runSlot(ctx context.Context, slot int, pipe *probe.Pipeline) (*SlotResult, error) {
	res := &SlotResult{Slot: slot}
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Attempts = attempt + 1
		res.Seed = g.rng.Int63()
		res.Theta1 = g.randomAngle()
		res.Theta2 = g.randomAngle()

		phys, err := g.runPhase(ctx, pipe, g.cfg.Physics, res, nil)
		if err != nil {
			return res, err
		}
		res.Physics = phys
		res.Render = nil
		if !phys.Passed {
			res.Reason = phys.Reason
			g.log.WithFields(logrus.Fields{
				"slot":    slot,
				"attempt": res.Attempts,
				"reason":  phys.Reason,
			}).Info("physics probe rejected")
			continue
		}

		if g.renderer == nil {
			res.Accepted = true
			res.Reason = ""
			return res, nil
		}

		rend, err := g.runPhase(ctx, pipe, g.cfg.Render, res, g.renderer)
		if err != nil {
			return res, err
		}
		res.Render = rend
		if rend.Passed {
			res.Accepted = true
			res.Reason = ""
			return res, nil
		}
		res.Reason = rend.Reason
		g.log.WithFields(logrus.Fields{
			"slot":    slot,
			"attempt": res.Attempts,
			"reason":  rend.Reason,
		}).Info("render probe rejected")
	}
	return res, nil
}

// runPhase replays a fresh ensemble with the slot's current parameters
// through a reset pipeline. The same seed reproduces the same trajectory,
// so the render phase sees the trajectory the physics phase accepted.
func (g *Generator) runPhase(ctx context.Context, pipe *probe.Pipeline, cfg probe.PhaseConfig, res *SlotResult, r Renderer) (*probe.PhaseResults, error) {
	pipe.Reset(cfg)

	maxDt := cfg.MaxDt
	if maxDt <= 0 {
		maxDt = g.cfg.MaxDt
	}
	frameDuration := cfg.FrameDuration
	if frameDuration <= 0 {
		frameDuration = 1.0 / 60.0
	}
	ens := sim.NewEnsemble(sim.NewDoublePendulum(), sim.EnsembleConfig{
		Pendulums:    cfg.Pendulums,
		BaseState:    sim.State{res.Theta1, res.Theta2, 0, 0},
		Perturbation: g.cfg.Perturbation,
		Seed:         res.Seed,
		MaxDt:        maxDt,
	})

	err := ens.Run(ctx, cfg.Frames, frameDuration, func(frame int, bodies []metrics.BodyState) error {
		if err := pipe.FeedStates(bodies); err != nil {
			return err
		}
		if r == nil {
			return nil
		}
		stats, err := r.RenderFrame(frame, bodies)
		if err != nil {
			return err
		}
		return pipe.FeedGPUFrame(stats)
	})
	if err != nil {
		return nil, err
	}
	return pipe.FinalizePhase()
}

func (g *Generator) randomAngle() float64 {
	return g.cfg.AngleMin + g.rng.Float64()*(g.cfg.AngleMax-g.cfg.AngleMin)
}
