// Package export writes collector data to external formats: an HTML chart
// for interactive inspection.
package export

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
)

// WriteChart renders the selected metric series as an HTML line chart with
// a vertical mark line per confirmed event. Empty columns selects every
// registered metric; series without data are skipped.
func WriteChart(c *metrics.Collector, columns []string, evs []events.Detected, path string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "swingsync metrics",
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Metric series",
			Subtitle: fmt.Sprintf("frames=%d", c.MaxLen()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	frames := make([]int, c.MaxLen())
	for i := range frames {
		frames[i] = i
	}
	line.SetXAxis(frames)

	marks := make([]opts.MarkLineNameXAxisItem, 0, len(evs))
	for _, ev := range evs {
		marks = append(marks, opts.MarkLineNameXAxisItem{Name: ev.Name, XAxis: ev.Frame})
	}

	plotted := 0
	if len(columns) == 0 {
		columns = c.Names()
	}
	for _, name := range columns {
		s, ok := c.Series(name)
		if !ok || s.Empty() {
			continue
		}
		values := s.Float64s()
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		}
		// event mark lines go on the first series only, they span the
		// whole plot anyway
		if plotted == 0 && len(marks) > 0 {
			seriesOpts = append(seriesOpts, charts.WithMarkLineNameXAxisItemOpts(marks...))
		}
		line.AddSeries(name, data, seriesOpts...)
		plotted++
	}
	if plotted == 0 {
		return fmt.Errorf("export: no series to chart")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return line.Render(f)
}
