// Package report renders probe and batch outcomes for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/mkarlden/swingsync/internal/batch"
	"github.com/mkarlden/swingsync/internal/probe"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaa00"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688"))

	graphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88")).
			Padding(1, 0)
)

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func verdict(passed bool, reason string) string {
	if passed {
		return passStyle.Render("PASS")
	}
	out := failStyle.Render("FAIL")
	if reason != "" {
		out += subtleStyle.Render("  " + reason)
	}
	return out
}

// PhaseSummary renders one finalized probe phase as a bordered panel.
func PhaseSummary(res *probe.PhaseResults) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("phase "+res.Name) + "\n\n")
	b.WriteString(row("frames", fmt.Sprintf("%d", res.Frames)))
	if !res.Completed {
		b.WriteString(warnStyle.Render("  (incomplete)"))
	}
	b.WriteString("\n")

	if res.BoomFrame >= 0 {
		b.WriteString(row("boom", fmt.Sprintf("frame %d (%.2fs)", res.BoomFrame, res.BoomSeconds)) + "\n")
	} else {
		b.WriteString(labelStyle.Render("boom") + subtleStyle.Render("not detected") + "\n")
	}
	if res.ChaosFrame >= 0 {
		b.WriteString(row("chaos", fmt.Sprintf("frame %d", res.ChaosFrame)) + "\n")
	}
	if res.DominantHz > 0 {
		b.WriteString(row("dominant freq", fmt.Sprintf("%.2f Hz", res.DominantHz)) + "\n")
	}
	if res.DivergenceRate != 0 {
		b.WriteString(row("divergence", fmt.Sprintf("%.3f /s", res.DivergenceRate)) + "\n")
	}

	if len(res.Scores) > 0 {
		b.WriteString("\n" + titleStyle.Render("scores") + "\n")
		names := make([]string, 0, len(res.Scores))
		for name := range res.Scores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(row(name, fmt.Sprintf("%.4f", res.Scores[name])) + "\n")
		}
	}

	for _, w := range res.Warnings {
		b.WriteString(warnStyle.Render("warning: "+w) + "\n")
	}

	b.WriteString("\n" + verdict(res.Passed, res.Reason))
	return panelStyle.Render(b.String())
}

// BatchSummary renders one line per slot plus an acceptance count.
func BatchSummary(results []batch.SlotResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("batch") + "\n\n")

	accepted := 0
	for _, res := range results {
		status := failStyle.Render("rejected")
		if res.Accepted {
			status = passStyle.Render("accepted")
			accepted++
		}
		line := fmt.Sprintf("slot %-3d %s  attempts=%d seed=%d", res.Slot, status, res.Attempts, res.Seed)
		if res.Reason != "" {
			line += subtleStyle.Render("  " + res.Reason)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + row("accepted", fmt.Sprintf("%d/%d", accepted, len(results))))
	return panelStyle.Render(b.String())
}

// Plot renders a metric series as an ascii line chart.
func Plot(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return subtleStyle.Render("(no data)")
	}
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 10
	}
	chart := asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
	return graphStyle.Render(chart)
}

// Sparkline renders a compact one-row chart of a series.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - min) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(passStyle.Render(c))
		case norm > 0.3:
			b.WriteString(warnStyle.Render(c))
		default:
			b.WriteString(failStyle.Render(c))
		}
	}
	return b.String()
}
