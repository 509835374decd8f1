package events

import (
	"math"
	"testing"

	"github.com/mkarlden/swingsync/internal/metrics"
)

const frameDuration = 1.0 / 60.0

// feed appends one value per registered metric and runs the detector.
func feed(t *testing.T, c *metrics.Collector, d *Detector, frame int, values map[string]float64) {
	t.Helper()
	if err := c.BeginFrame(frame); err != nil {
		t.Fatal(err)
	}
	for name, v := range values {
		if err := c.Set(name, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.EndFrame(); err != nil {
		t.Fatal(err)
	}
	d.Update(c, frameDuration)
}

func TestConfirmationRunStart(t *testing.T) {
	c := metrics.NewCollector()
	c.Register(metrics.Variance, metrics.TypePhysics)

	d := NewDetector()
	d.Register(Criteria{Event: Boom, Metric: metrics.Variance, Threshold: 1.0, ConfirmFrames: 3})

	values := []float64{0, 0.5, 2, 3, 4}
	for frame, v := range values {
		feed(t, c, d, frame, map[string]float64{metrics.Variance: v})
	}

	ev, ok := d.Event(Boom)
	if !ok {
		t.Fatal("boom not confirmed")
	}
	// Run starts at frame 2, confirmation completes at frame 4.
	if ev.Frame != 2 {
		t.Errorf("boom frame = %d, want run start 2", ev.Frame)
	}
	if math.Abs(ev.Seconds-2*frameDuration) > 1e-12 {
		t.Errorf("boom seconds = %v", ev.Seconds)
	}
	if ev.Value != 2 {
		t.Errorf("boom value = %v, want first-cross value 2", ev.Value)
	}
	// Derivative at first cross: 2 - 0.5.
	if math.Abs(ev.Derivative-1.5) > 1e-12 {
		t.Errorf("boom derivative = %v, want 1.5", ev.Derivative)
	}
	if math.Abs(ev.SharpnessRatio-1.5) > 1e-12 {
		t.Errorf("sharpness = %v, want |1.5|/|1.0|", ev.SharpnessRatio)
	}
}

func TestDipResetsRun(t *testing.T) {
	c := metrics.NewCollector()
	c.Register(metrics.Variance, metrics.TypePhysics)

	d := NewDetector()
	d.Register(Criteria{Event: Boom, Metric: metrics.Variance, Threshold: 1.0, ConfirmFrames: 3})

	// Two frames above, a dip, then a fresh run.
	values := []float64{2, 2, 0.5, 3, 3, 3}
	for frame, v := range values {
		feed(t, c, d, frame, map[string]float64{metrics.Variance: v})
	}

	ev, ok := d.Event(Boom)
	if !ok {
		t.Fatal("boom not confirmed")
	}
	if ev.Frame != 3 {
		t.Errorf("boom frame = %d, want 3 (run restarted after dip)", ev.Frame)
	}
}

func TestChaosGatedOnBoom(t *testing.T) {
	c := metrics.NewCollector()
	c.Register(metrics.Variance, metrics.TypePhysics)
	c.Register(metrics.CircularSpread, metrics.TypePhysics)

	d := NewDetector()
	d.Register(Criteria{Event: Chaos, Metric: metrics.CircularSpread, Threshold: 0.5, ConfirmFrames: 2})
	d.Register(Criteria{Event: Boom, Metric: metrics.Variance, Threshold: 1.0, ConfirmFrames: 2})

	// Chaos metric satisfies its threshold from the start; boom only later.
	boomValues := []float64{0, 0, 0, 2, 2, 2, 2}
	for frame, bv := range boomValues {
		feed(t, c, d, frame, map[string]float64{
			metrics.Variance:       bv,
			metrics.CircularSpread: 0.9,
		})
		if frame < 4 && d.IsConfirmed(Chaos) {
			t.Fatalf("chaos confirmed at frame %d before boom", frame)
		}
	}

	boom, ok := d.Event(Boom)
	if !ok || boom.Frame != 3 {
		t.Fatalf("boom = (%+v, %v), want frame 3", boom, ok)
	}
	chaos, ok := d.Event(Chaos)
	if !ok {
		t.Fatal("chaos never confirmed after boom")
	}
	if chaos.Frame < boom.Frame {
		t.Errorf("chaos frame %d precedes boom frame %d", chaos.Frame, boom.Frame)
	}
}

func TestDerivativeCriterion(t *testing.T) {
	c := metrics.NewCollector()
	c.Register(metrics.Variance, metrics.TypePhysics)

	d := NewDetector()
	d.Register(Criteria{
		Event:         "surge",
		Metric:        metrics.Variance,
		Threshold:     0.5,
		ConfirmFrames: 1,
		OnDerivative:  true,
	})

	feed(t, c, d, 0, map[string]float64{metrics.Variance: 5})
	if d.IsConfirmed("surge") {
		t.Fatal("frame 0 has zero derivative, must not confirm")
	}
	feed(t, c, d, 1, map[string]float64{metrics.Variance: 6})
	if !d.IsConfirmed("surge") {
		t.Fatal("derivative 1.0 above threshold, want confirmation")
	}
}

func TestMissingMetricSkipped(t *testing.T) {
	c := metrics.NewCollector()
	d := NewDetector()
	d.Register(Criteria{Event: Boom, Metric: metrics.Variance, Threshold: 1.0, ConfirmFrames: 1})

	// No metric registered at all: update must be a no-op, not a panic.
	d.Update(c, frameDuration)
	if d.IsConfirmed(Boom) {
		t.Fatal("confirmed event from absent metric")
	}
}

func TestInjectAndCallbacks(t *testing.T) {
	d := NewDetector()

	var fired []Detected
	d.OnEvent(func(ev Detected) { fired = append(fired, ev) })

	d.Inject(Boom, 120, 4.2, frameDuration)

	ev, ok := d.Event(Boom)
	if !ok || !ev.Confirmed {
		t.Fatal("injected event not confirmed")
	}
	if ev.Frame != 120 || ev.Value != 4.2 {
		t.Errorf("injected event = %+v", ev)
	}
	if math.Abs(ev.Seconds-2.0) > 1e-9 {
		t.Errorf("injected seconds = %v, want 2.0", ev.Seconds)
	}
	if len(fired) != 1 {
		t.Errorf("callbacks fired = %d, want 1", len(fired))
	}

	// Injection overwrites, even though organic confirmation is terminal.
	d.Inject(Boom, 130, 5.0, frameDuration)
	ev, _ = d.Event(Boom)
	if ev.Frame != 130 {
		t.Errorf("second injection frame = %d, want 130", ev.Frame)
	}
}

func TestReset(t *testing.T) {
	c := metrics.NewCollector()
	c.Register(metrics.Variance, metrics.TypePhysics)

	d := NewDetector()
	d.Register(Criteria{Event: Boom, Metric: metrics.Variance, Threshold: 1.0, ConfirmFrames: 1})
	feed(t, c, d, 0, map[string]float64{metrics.Variance: 2})

	if !d.IsConfirmed(Boom) {
		t.Fatal("setup: boom should be confirmed")
	}

	d.Reset()
	if d.IsConfirmed(Boom) {
		t.Error("Reset kept confirmation")
	}
	if len(d.Events()) != 0 {
		t.Error("Reset kept events list")
	}

	// Criteria survive the reset.
	c.Reset()
	feed(t, c, d, 0, map[string]float64{metrics.Variance: 2})
	if !d.IsConfirmed(Boom) {
		t.Error("criteria lost across Reset")
	}
}
