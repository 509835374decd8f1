// Package events detects semantically named moments (a "boom", a "chaos"
// plateau) from noisy per-frame metrics via sustained threshold crossings.
package events

import (
	"math"

	"github.com/mkarlden/swingsync/internal/metrics"
)

// Event names shared with config files and annotations. Exact strings are a
// compatibility contract.
const (
	Boom  = "boom"
	Chaos = "chaos"
)

// Direction selects which side of the threshold counts as a crossing.
type Direction int

const (
	Above Direction = iota
	Below
)

// Criteria configures one named event.
type Criteria struct {
	Event         string
	Metric        string
	Threshold     float64
	ConfirmFrames int
	Direction     Direction
	// OnDerivative evaluates the per-frame backward difference instead of
	// the raw value.
	OnDerivative bool
}

// Detected is an immutable record of a confirmed event. Frame is the first
// frame of the confirming run, not the frame on which confirmation completed.
type Detected struct {
	Name           string
	Frame          int
	Seconds        float64
	Value          float64
	Derivative     float64
	SharpnessRatio float64
	Confirmed      bool
}

// Callback is invoked once when an event is confirmed.
type Callback func(Detected)

type detectionState struct {
	consecutive int
	firstFrame  int
	firstValue  float64
	firstDeriv  float64
}

// Detector is a multi-event state machine: per event Idle -> Accumulating ->
// Confirmed (terminal). The "chaos" event is only evaluated once "boom" is
// confirmed; all other events are independent.
type Detector struct {
	order     []string
	criteria  map[string]Criteria
	states    map[string]*detectionState
	confirmed map[string]Detected
	callbacks []Callback
}

func NewDetector() *Detector {
	return &Detector{
		criteria:  make(map[string]Criteria),
		states:    make(map[string]*detectionState),
		confirmed: make(map[string]Detected),
	}
}

// Register adds or replaces an event's criteria. Replacing resets the
// event's accumulation state but never un-confirms it.
func (d *Detector) Register(crit Criteria) {
	if crit.ConfirmFrames < 1 {
		crit.ConfirmFrames = 1
	}
	if _, ok := d.criteria[crit.Event]; !ok {
		d.order = append(d.order, crit.Event)
	}
	d.criteria[crit.Event] = crit
	d.states[crit.Event] = &detectionState{}
}

// OnEvent registers a callback fired on each confirmation.
func (d *Detector) OnEvent(cb Callback) {
	d.callbacks = append(d.callbacks, cb)
}

// Update evaluates every unconfirmed event against the collector's latest
// frame. Metrics that are absent or empty are skipped, not errors.
func (d *Detector) Update(c *metrics.Collector, frameDuration float64) {
	for _, name := range d.order {
		if _, ok := d.confirmed[name]; ok {
			continue
		}
		if name == Chaos && !d.IsConfirmed(Boom) {
			continue
		}

		crit := d.criteria[name]
		s, ok := c.Series(crit.Metric)
		if !ok || s.Empty() {
			continue
		}

		frame := s.Len() - 1
		value := s.At(frame)
		deriv := s.DerivativeAt(frame)

		test := value
		if crit.OnDerivative {
			test = deriv
		}
		satisfied := test > crit.Threshold
		if crit.Direction == Below {
			satisfied = test < crit.Threshold
		}

		st := d.states[name]
		if !satisfied {
			st.consecutive = 0
			continue
		}

		if st.consecutive == 0 {
			st.firstFrame = frame
			st.firstValue = value
			st.firstDeriv = deriv
		}
		st.consecutive++

		if st.consecutive >= crit.ConfirmFrames {
			d.confirm(Detected{
				Name:           name,
				Frame:          st.firstFrame,
				Seconds:        float64(st.firstFrame) * frameDuration,
				Value:          st.firstValue,
				Derivative:     st.firstDeriv,
				SharpnessRatio: sharpness(st.firstDeriv, crit.Threshold),
				Confirmed:      true,
			})
		}
	}
}

// Inject records an externally detected event as confirmed, bypassing the
// threshold state machine. This is the escape hatch the probe pipeline uses
// to force the frame chosen by offline detection; it overwrites any
// organically confirmed event of the same name.
func (d *Detector) Inject(name string, frame int, value, frameDuration float64) {
	if _, ok := d.criteria[name]; !ok {
		d.order = append(d.order, name)
		d.criteria[name] = Criteria{Event: name, ConfirmFrames: 1}
		d.states[name] = &detectionState{}
	}
	d.confirm(Detected{
		Name:      name,
		Frame:     frame,
		Seconds:   float64(frame) * frameDuration,
		Value:     value,
		Confirmed: true,
	})
}

func (d *Detector) confirm(ev Detected) {
	d.confirmed[ev.Name] = ev
	for _, cb := range d.callbacks {
		cb(ev)
	}
}

// Event returns the confirmed record for a name.
func (d *Detector) Event(name string) (Detected, bool) {
	ev, ok := d.confirmed[name]
	return ev, ok
}

// IsConfirmed reports whether the named event has fired.
func (d *Detector) IsConfirmed(name string) bool {
	_, ok := d.confirmed[name]
	return ok
}

// Events returns all confirmed events in registration order.
func (d *Detector) Events() []Detected {
	out := make([]Detected, 0, len(d.confirmed))
	for _, name := range d.order {
		if ev, ok := d.confirmed[name]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Reset returns every state machine to Idle and clears confirmations.
// Criteria registrations persist.
func (d *Detector) Reset() {
	for name := range d.states {
		d.states[name] = &detectionState{}
	}
	clear(d.confirmed)
}

func sharpness(deriv, threshold float64) float64 {
	denom := math.Abs(threshold)
	if denom < 1e-9 {
		denom = 1e-9
	}
	return math.Abs(deriv) / denom
}
