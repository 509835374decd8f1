package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
)

func chartCollector(t *testing.T) *metrics.Collector {
	t.Helper()
	c := metrics.NewCollector()
	c.RegisterPhysics()
	angles := [][]float64{{0.1, 0.1}, {0.2, -0.1}, {0.5, -0.4}}
	for frame, a := range angles {
		if err := c.BeginFrame(frame); err != nil {
			t.Fatal(err)
		}
		if err := c.UpdateFromAngles(a, a); err != nil {
			t.Fatal(err)
		}
		if err := c.EndFrame(); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func TestWriteChart(t *testing.T) {
	c := chartCollector(t)
	path := filepath.Join(t.TempDir(), "chart.html")

	evs := []events.Detected{{Name: events.Boom, Frame: 2, Confirmed: true}}
	if err := WriteChart(c, []string{metrics.Variance, metrics.CircularSpread}, evs, path); err != nil {
		t.Fatalf("write chart: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	html := string(data)
	for _, want := range []string{metrics.Variance, metrics.CircularSpread, events.Boom} {
		if !strings.Contains(html, want) {
			t.Errorf("chart html missing %q", want)
		}
	}
}

func TestWriteChartNoSeries(t *testing.T) {
	c := metrics.NewCollector()
	path := filepath.Join(t.TempDir(), "chart.html")
	if err := WriteChart(c, nil, nil, path); err == nil {
		t.Error("expected error for empty collector")
	}
}
