package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/mkarlden/swingsync/internal/series"
)

// MetricType classifies where a metric's values come from.
type MetricType int

const (
	TypePhysics MetricType = iota
	TypeGPU
	TypeDerived
)

func (t MetricType) String() string {
	switch t {
	case TypePhysics:
		return "physics"
	case TypeGPU:
		return "gpu"
	case TypeDerived:
		return "derived"
	default:
		return "unknown"
	}
}

var (
	// ErrNotRegistered indicates a write to a metric name never registered.
	ErrNotRegistered = errors.New("metrics: metric not registered")

	// ErrNoOpenFrame indicates a write outside a BeginFrame/EndFrame bracket.
	ErrNoOpenFrame = errors.New("metrics: no open frame")

	// ErrFrameOpen indicates BeginFrame while the previous frame is unflushed.
	ErrFrameOpen = errors.New("metrics: previous frame still open")

	// ErrDoubleWrite indicates two writes to the same metric within one frame.
	ErrDoubleWrite = errors.New("metrics: metric already staged this frame")
)

// BodyState is one pendulum's per-frame state as fed by the simulation loop.
// Angle-only feeds use UpdateFromAngles and cannot populate the
// position-derived metrics.
type BodyState struct {
	Theta1, Theta2 float64
	Omega1, Omega2 float64
	X2, Y2         float64
	Energy         float64
}

// GPUFrameStats is the per-frame measurement bundle an external renderer
// supplies for low-res render probes. Values are normalized to [0,1] by the
// renderer except MaxValue, which is raw peak brightness.
type GPUFrameStats struct {
	MaxValue      float64
	Brightness    float64
	Coverage      float64
	EdgeEnergy    float64
	ColorVariance float64
}

type entry struct {
	series *series.Series[float64]
	typ    MetricType
}

// Collector owns the named metric series for one simulation or probe phase.
// Writes are bracketed per frame: BeginFrame, any number of Set/Update calls
// (one write per metric), then EndFrame, which flushes the staged values
// atomically. It is driven from a single goroutine.
type Collector struct {
	order   []string
	entries map[string]entry

	frame     int
	frameOpen bool
	staged    map[string]float64

	spreadHistory []SpreadMetrics
	stagedSpread  SpreadMetrics
	spreadStaged  bool
}

func NewCollector() *Collector {
	return &Collector{
		entries: make(map[string]entry),
		staged:  make(map[string]float64),
	}
}

// Register adds a metric. Registering an existing name again is a no-op and
// keeps the original type.
func (c *Collector) Register(name string, typ MetricType) {
	if _, ok := c.entries[name]; ok {
		return
	}
	c.entries[name] = entry{series: series.New[float64](), typ: typ}
	c.order = append(c.order, name)
}

// RegisterPhysics registers the full physics-derived metric set.
func (c *Collector) RegisterPhysics() {
	for _, name := range PhysicsNames {
		c.Register(name, TypePhysics)
	}
}

// RegisterGPU registers the renderer-supplied metric set plus the derived
// causticness blend.
func (c *Collector) RegisterGPU() {
	for _, name := range GPUNames {
		c.Register(name, TypeGPU)
	}
	c.Register(Causticness, TypeDerived)
}

// Registered reports whether the name is known to the collector.
func (c *Collector) Registered(name string) bool {
	_, ok := c.entries[name]
	return ok
}

// Type returns the metric's type. Unregistered names report TypeDerived and
// false.
func (c *Collector) Type(name string) (MetricType, bool) {
	e, ok := c.entries[name]
	return e.typ, ok
}

// Names returns the registered metric names in registration order.
func (c *Collector) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Series returns the series backing a metric. The series remains owned by
// the collector; callers must not push to it.
func (c *Collector) Series(name string) (*series.Series[float64], bool) {
	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	return e.series, true
}

// Value returns the metric's latest value, zero when absent or empty.
func (c *Collector) Value(name string) float64 {
	e, ok := c.entries[name]
	if !ok {
		return 0
	}
	return e.series.Current()
}

// Frame returns the current frame cursor.
func (c *Collector) Frame() int { return c.frame }

// BeginFrame opens the write bracket for the given frame index.
func (c *Collector) BeginFrame(frame int) error {
	if c.frameOpen {
		return fmt.Errorf("%w (frame %d)", ErrFrameOpen, c.frame)
	}
	c.frame = frame
	c.frameOpen = true
	return nil
}

// Set stages one value for the open frame. A second write to the same metric
// within one frame is rejected rather than silently ignored.
func (c *Collector) Set(name string, v float64) error {
	if !c.frameOpen {
		return ErrNoOpenFrame
	}
	if _, ok := c.entries[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	if _, ok := c.staged[name]; ok {
		return fmt.Errorf("%w: %q at frame %d", ErrDoubleWrite, name, c.frame)
	}
	c.staged[name] = v
	return nil
}

// EndFrame flushes the staged writes: each staged series is zero back-filled
// up to (but not including) the current frame, then receives exactly one
// value. A series already recorded past the cursor is left untouched, which
// keeps replays of an old frame idempotent.
func (c *Collector) EndFrame() error {
	if !c.frameOpen {
		return ErrNoOpenFrame
	}
	for _, name := range c.order {
		v, ok := c.staged[name]
		if !ok {
			continue
		}
		s := c.entries[name].series
		if s.Len() > c.frame {
			continue
		}
		for s.Len() < c.frame {
			s.Push(0)
		}
		s.Push(v)
	}
	if c.spreadStaged && len(c.spreadHistory) <= c.frame {
		for len(c.spreadHistory) < c.frame {
			c.spreadHistory = append(c.spreadHistory, SpreadMetrics{})
		}
		c.spreadHistory = append(c.spreadHistory, c.stagedSpread)
	}
	c.spreadStaged = false
	clear(c.staged)
	c.frameOpen = false
	return nil
}

// UpdateFromAngles stages the physics metrics computable from raw angle
// pairs: population variance of the second angles, and the first-angle
// spread metrics. The spread record is staged alongside the scalar writes
// and lands in the parallel history when EndFrame commits the frame.
// Position-derived metrics stay untouched.
func (c *Collector) UpdateFromAngles(angle1s, angle2s []float64) error {
	if !c.frameOpen {
		return ErrNoOpenFrame
	}
	c.Register(Variance, TypePhysics)
	c.Register(SpreadRatio, TypePhysics)
	c.Register(CircularSpread, TypePhysics)
	c.Register(AngularRange, TypePhysics)

	if err := c.Set(Variance, populationVariance(angle2s)); err != nil {
		return err
	}

	spread := ComputeSpread(angle1s)
	c.stagedSpread = spread
	c.spreadStaged = true

	if err := c.Set(SpreadRatio, spread.SpreadRatio); err != nil {
		return err
	}
	if err := c.Set(CircularSpread, spread.CircularSpread); err != nil {
		return err
	}
	return c.Set(AngularRange, spread.AngularRange)
}

// UpdateFromStates stages the full physics metric set from per-pendulum
// state, including the position-derived total energy and angular
// causticness.
func (c *Collector) UpdateFromStates(states []BodyState) error {
	if !c.frameOpen {
		return ErrNoOpenFrame
	}

	a1 := make([]float64, len(states))
	a2 := make([]float64, len(states))
	energySum := 0.0
	for i, st := range states {
		a1[i] = st.Theta1
		a2[i] = st.Theta2
		energySum += st.Energy
	}

	if err := c.UpdateFromAngles(a1, a2); err != nil {
		return err
	}

	c.Register(TotalEnergy, TypePhysics)
	c.Register(AngularCausticness, TypePhysics)

	meanEnergy := 0.0
	if len(states) > 0 {
		meanEnergy = energySum / float64(len(states))
	}
	if err := c.Set(TotalEnergy, meanEnergy); err != nil {
		return err
	}
	return c.Set(AngularCausticness, alignment(a2))
}

// SetGPUFrame stages the renderer measurement bundle plus the derived
// causticness blend of edge energy, coverage and color variance.
func (c *Collector) SetGPUFrame(stats GPUFrameStats) error {
	if !c.frameOpen {
		return ErrNoOpenFrame
	}
	c.RegisterGPU()

	writes := []struct {
		name  string
		value float64
	}{
		{MaxValue, stats.MaxValue},
		{Brightness, stats.Brightness},
		{Coverage, stats.Coverage},
		{EdgeEnergy, stats.EdgeEnergy},
		{ColorVariance, stats.ColorVariance},
		{Causticness, causticnessBlend(stats)},
	}
	for _, w := range writes {
		if err := c.Set(w.name, w.value); err != nil {
			return err
		}
	}
	return nil
}

// causticnessBlend collapses the renderer's visual-complexity measurements
// into one score: 0.40 edge energy, 0.35 coverage, 0.25 color variance,
// inputs clamped to [0,1].
func causticnessBlend(stats GPUFrameStats) float64 {
	clamp := func(v float64) float64 {
		return math.Min(math.Max(v, 0), 1)
	}
	return 0.40*clamp(stats.EdgeEnergy) + 0.35*clamp(stats.Coverage) + 0.25*clamp(stats.ColorVariance)
}

// SpreadHistory returns the per-frame spread metric records.
func (c *Collector) SpreadHistory() []SpreadMetrics {
	return c.spreadHistory
}

// MaxLen returns the longest recorded series length across all metrics.
func (c *Collector) MaxLen() int {
	max := 0
	for _, name := range c.order {
		if n := c.entries[name].series.Len(); n > max {
			max = n
		}
	}
	return max
}

// Reset clears all recorded data and the frame cursor while keeping the
// metric registrations.
func (c *Collector) Reset() {
	for _, name := range c.order {
		c.entries[name].series.Clear()
	}
	c.spreadHistory = c.spreadHistory[:0]
	c.spreadStaged = false
	clear(c.staged)
	c.frame = 0
	c.frameOpen = false
}
