package predict

import (
	"github.com/sirupsen/logrus"

	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
)

// Evaluator runs a target list in two fixed phases: every frame target
// first, then every score target. The ordering is load-bearing: score
// targets take the frame predicted for the target named "boom" as their
// reference, so evaluating them first would anchor sustain measurements on
// the wrong frame.
type Evaluator struct {
	frameDuration float64
}

func NewEvaluator(frameDuration float64) *Evaluator {
	return &Evaluator{frameDuration: frameDuration}
}

// Evaluate produces one result per target, frame targets first.
func (e *Evaluator) Evaluate(targets []Target, c *metrics.Collector, d *events.Detector) []Result {
	results := make([]Result, 0, len(targets))
	boomFrame := -1

	for _, t := range targets {
		if t.Kind != KindFrame {
			continue
		}
		frame, seconds := -1, -1.0
		if s, ok := c.Series(t.Metric); ok {
			frame, seconds = NewFrameDetector(t.Frame, e.frameDuration).Detect(s)
		}
		if t.Name == events.Boom && frame >= 0 {
			boomFrame = frame
		}
		logrus.WithFields(logrus.Fields{
			"target": t.Name,
			"method": t.Frame.Method.String(),
			"frame":  frame,
		}).Debug("predict: frame target evaluated")
		results = append(results, Result{
			Target:  t.Name,
			Kind:    KindFrame,
			Frame:   frame,
			Seconds: seconds,
			Score:   -1,
		})
	}

	for _, t := range targets {
		if t.Kind != KindScore {
			continue
		}
		score := NewScorePredictor(t.Score).Predict(c, d, boomFrame)
		logrus.WithFields(logrus.Fields{
			"target": t.Name,
			"method": t.Score.Method.String(),
			"score":  score,
		}).Debug("predict: score target evaluated")
		results = append(results, Result{
			Target: t.Name,
			Kind:   KindScore,
			Frame:  -1,
			Score:  score,
		})
	}

	return results
}
