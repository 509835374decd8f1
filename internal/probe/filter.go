package probe

import (
	"fmt"

	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
)

// CriterionKind selects what a filter criterion checks.
type CriterionKind int

const (
	// EventRequired fails when the named event was never confirmed.
	EventRequired CriterionKind = iota
	// EventTimingRange fails when the event fires outside a time window.
	EventTimingRange
	// MetricValueRange fails when a metric's final value is out of range.
	MetricValueRange
	// ScoreThreshold fails when a named score is below a minimum.
	ScoreThreshold
)

// Criterion is one independent pass/fail check.
type Criterion struct {
	Kind CriterionKind

	// Event criteria.
	Event      string
	MinSeconds float64
	MaxSeconds float64

	// Metric range criteria. Max is ignored when not above Min, leaving
	// the range open-ended upward.
	Metric string
	Min    float64
	Max    float64

	// Score criteria.
	Score    string
	MinScore float64
}

// Filter is an ordered list of criteria. Evaluation short-circuits on the
// first failure and reports a human-readable rejection reason for the
// batch/retry layer. Rejection is a normal probing outcome, not an error.
type Filter struct {
	Criteria []Criterion
}

// Evaluate checks every criterion against a finalized phase.
func (f Filter) Evaluate(res *PhaseResults, c *metrics.Collector, d *events.Detector) (bool, string) {
	for _, crit := range f.Criteria {
		if ok, reason := f.check(crit, res, c, d); !ok {
			return false, reason
		}
	}
	return true, ""
}

func (f Filter) check(crit Criterion, res *PhaseResults, c *metrics.Collector, d *events.Detector) (bool, string) {
	switch crit.Kind {
	case EventRequired:
		if !d.IsConfirmed(crit.Event) {
			return false, fmt.Sprintf("event %q not detected", crit.Event)
		}

	case EventTimingRange:
		ev, ok := d.Event(crit.Event)
		if !ok {
			return false, fmt.Sprintf("event %q not detected", crit.Event)
		}
		if ev.Seconds < crit.MinSeconds || (crit.MaxSeconds > crit.MinSeconds && ev.Seconds > crit.MaxSeconds) {
			return false, fmt.Sprintf("event %q at %.2fs outside window [%.2fs, %.2fs]",
				crit.Event, ev.Seconds, crit.MinSeconds, crit.MaxSeconds)
		}

	case MetricValueRange:
		if !c.Registered(crit.Metric) {
			return false, fmt.Sprintf("metric %q not recorded", crit.Metric)
		}
		v := c.Value(crit.Metric)
		if v < crit.Min {
			return false, fmt.Sprintf("metric %q final value %.3f below minimum %.3f", crit.Metric, v, crit.Min)
		}
		if crit.Max > crit.Min && v > crit.Max {
			return false, fmt.Sprintf("metric %q final value %.3f above maximum %.3f", crit.Metric, v, crit.Max)
		}

	case ScoreThreshold:
		score, ok := res.Scores[crit.Score]
		if !ok {
			return false, fmt.Sprintf("score %q not computed", crit.Score)
		}
		if score < crit.MinScore {
			return false, fmt.Sprintf("score %q %.3f below threshold %.3f", crit.Score, score, crit.MinScore)
		}
	}
	return true, ""
}
