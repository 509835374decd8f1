package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/mkarlden/swingsync/internal/metrics"
)

// EnsembleConfig fixes one ensemble run.
type EnsembleConfig struct {
	Pendulums int
	// BaseState is the shared initial condition; nil selects both arms
	// horizontal at rest.
	BaseState State
	// Perturbation is the amplitude of the uniform jitter applied to the
	// initial angles of each pendulum. Zero or negative selects 1e-4.
	Perturbation float64
	Seed         int64
	// MaxDt caps the integration substep; frame advances longer than this
	// are split. Zero or negative selects 1e-3.
	MaxDt float64
}

// Ensemble steps many double pendulums that differ only by a tiny initial
// perturbation. Sensitive dependence on initial conditions makes the
// ensemble spread apart over time, which is the signal every downstream
// metric measures.
type Ensemble struct {
	model  *DoublePendulum
	cfg    EnsembleConfig
	states []State
	bodies []metrics.BodyState
	time   float64

	// one integrator per worker, scratch buffers are not shareable
	workers []*RK4
}

func NewEnsemble(model *DoublePendulum, cfg EnsembleConfig) *Ensemble {
	if cfg.Pendulums < 1 {
		cfg.Pendulums = 1
	}
	if cfg.Perturbation <= 0 {
		cfg.Perturbation = 1e-4
	}
	if cfg.MaxDt <= 0 {
		cfg.MaxDt = 1e-3
	}
	base := cfg.BaseState
	if base == nil {
		base = State{math.Pi / 2, math.Pi / 2, 0, 0}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	states := make([]State, cfg.Pendulums)
	for i := range states {
		s := base.Clone()
		s[0] += (rng.Float64()*2 - 1) * cfg.Perturbation
		s[1] += (rng.Float64()*2 - 1) * cfg.Perturbation
		states[i] = s
	}

	n := runtime.GOMAXPROCS(0)
	if n > cfg.Pendulums {
		n = cfg.Pendulums
	}
	workers := make([]*RK4, n)
	for i := range workers {
		workers[i] = NewRK4()
	}

	return &Ensemble{
		model:   model,
		cfg:     cfg,
		states:  states,
		bodies:  make([]metrics.BodyState, cfg.Pendulums),
		workers: workers,
	}
}

func (e *Ensemble) Size() int       { return len(e.states) }
func (e *Ensemble) Time() float64   { return e.time }
func (e *Ensemble) States() []State { return e.states }

// Advance integrates every pendulum forward by dt, splitting into substeps
// no longer than MaxDt. The ensemble is sharded across the workers.
func (e *Ensemble) Advance(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("sim: advance dt must be positive, got %f", dt)
	}
	substeps := int(math.Ceil(dt / e.cfg.MaxDt))
	h := dt / float64(substeps)

	errs := make([]error, len(e.workers))
	var wg sync.WaitGroup
	chunk := (len(e.states) + len(e.workers) - 1) / len(e.workers)
	for w := range e.workers {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(e.states) {
			hi = len(e.states)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			rk := e.workers[w]
			for i := lo; i < hi; i++ {
				x := e.states[i]
				t := e.time
				for s := 0; s < substeps; s++ {
					x = rk.Step(e.model, x, t, h)
					t += h
				}
				if !x.IsValid() {
					errs[w] = fmt.Errorf("sim: pendulum %d diverged at t=%.4f", i, t)
					return
				}
				e.states[i] = x
			}
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	e.time += dt
	return nil
}

// Bodies converts the current ensemble states into collector body states.
// The returned slice is reused across calls.
func (e *Ensemble) Bodies() []metrics.BodyState {
	for i, s := range e.states {
		_, _, x2, y2 := e.model.Positions(s)
		e.bodies[i] = metrics.BodyState{
			Theta1: s[0],
			Theta2: s[1],
			Omega1: s[2],
			Omega2: s[3],
			X2:     x2,
			Y2:     y2,
			Energy: e.model.Energy(s),
		}
	}
	return e.bodies
}

// Run advances the ensemble frame by frame, handing each frame's body
// states to onFrame. A callback error or context cancellation stops the
// run.
func (e *Ensemble) Run(ctx context.Context, frames int, frameDuration float64, onFrame func(frame int, bodies []metrics.BodyState) error) error {
	if frameDuration <= 0 {
		return fmt.Errorf("sim: frame duration must be positive, got %f", frameDuration)
	}
	for frame := 0; frame < frames; frame++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := onFrame(frame, e.Bodies()); err != nil {
			return err
		}
		if err := e.Advance(frameDuration); err != nil {
			return err
		}
	}
	return nil
}
