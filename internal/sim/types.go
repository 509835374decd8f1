// Package sim integrates ensembles of double pendulums and exposes their
// per-frame states to the metrics collector.
package sim

import "math"

// State is a flat dynamics state vector. For a double pendulum the layout
// is [theta1, theta2, omega1, omega2].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Dynamics is a first-order ODE system dx/dt = f(x, t).
type Dynamics interface {
	Derivative(x State, t float64) State
	StateDim() int
}

// Integrator advances a dynamics state by one time step.
type Integrator interface {
	Step(dyn Dynamics, x State, t, dt float64) State
}

// EnergyComputer is implemented by dynamics with a conserved energy,
// used for drift diagnostics.
type EnergyComputer interface {
	Energy(x State) float64
}
