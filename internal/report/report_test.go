package report

import (
	"strings"
	"testing"

	"github.com/mkarlden/swingsync/internal/batch"
	"github.com/mkarlden/swingsync/internal/probe"
)

func TestPhaseSummary(t *testing.T) {
	res := &probe.PhaseResults{
		Name:           "physics",
		Completed:      true,
		Passed:         true,
		Frames:         600,
		BoomFrame:      103,
		BoomSeconds:    1.72,
		ChaosFrame:     -1,
		DominantHz:     1.25,
		DivergenceRate: 0.42,
		Scores: probe.SimulationScore{
			probe.ScoreBoomQuality: 0.81,
		},
	}

	out := PhaseSummary(res)
	for _, want := range []string{"physics", "600", "frame 103", "1.25 Hz", "0.420 /s", "boom_quality", "PASS"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestPhaseSummaryRejected(t *testing.T) {
	res := &probe.PhaseResults{
		Name:      "physics",
		Frames:    100,
		BoomFrame: -1,
		Reason:    `event "boom" not detected`,
	}

	out := PhaseSummary(res)
	if !strings.Contains(out, "FAIL") {
		t.Error("summary missing FAIL verdict")
	}
	if !strings.Contains(out, "not detected") {
		t.Error("summary missing rejection reason")
	}
	if !strings.Contains(out, "(incomplete)") {
		t.Error("summary missing incomplete marker")
	}
}

func TestBatchSummary(t *testing.T) {
	results := []batch.SlotResult{
		{Slot: 0, Accepted: true, Attempts: 1, Seed: 42},
		{Slot: 1, Accepted: false, Attempts: 4, Seed: 7, Reason: "score too low"},
	}

	out := BatchSummary(results)
	for _, want := range []string{"accepted", "rejected", "score too low", "1/2"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestPlot(t *testing.T) {
	values := []float64{0, 1, 2, 3, 2, 1, 0}
	out := Plot(values, "variance", 40, 5)
	if !strings.Contains(out, "variance") {
		t.Error("plot missing caption")
	}

	if out := Plot(nil, "empty", 40, 5); !strings.Contains(out, "no data") {
		t.Error("empty plot should say so")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 8); got != strings.Repeat("─", 8) {
		t.Errorf("empty sparkline = %q", got)
	}

	out := Sparkline([]float64{0, 0.5, 1.0}, 3)
	if out == "" {
		t.Error("sparkline empty for non-empty input")
	}
}
