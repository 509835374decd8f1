package analysis

import "github.com/mkarlden/swingsync/internal/series"

// findPeaks scans for strict local maxima that clear both the height and
// prominence fractions of the global maximum, then merges peaks closer than
// minSeparation seconds, keeping the higher one.
func findPeaks(s *series.Series[float64], globalMax float64, cfg Config, frameDuration float64) []Peak {
	n := s.Len()
	if n < 3 || globalMax <= 0 {
		return nil
	}

	minHeight := cfg.MinPeakHeightFrac * globalMax
	minProm := cfg.MinProminenceFrac * globalMax

	var peaks []Peak
	for i := 1; i < n-1; i++ {
		v := s.At(i)
		if v <= s.At(i-1) || v <= s.At(i+1) {
			continue
		}
		if v < minHeight {
			continue
		}
		prom := s.Prominence(i)
		if prom < minProm {
			continue
		}
		peaks = append(peaks, Peak{
			Frame:      i,
			Value:      v,
			Seconds:    float64(i) * frameDuration,
			Prominence: prom,
		})
	}

	return mergePeaks(peaks, cfg.MinPeakSeparation, frameDuration)
}

func mergePeaks(peaks []Peak, minSeparation, frameDuration float64) []Peak {
	if len(peaks) < 2 || minSeparation <= 0 || frameDuration <= 0 {
		return peaks
	}
	minFrames := minSeparation / frameDuration

	merged := peaks[:1]
	for _, p := range peaks[1:] {
		last := &merged[len(merged)-1]
		if float64(p.Frame-last.Frame) < minFrames {
			if p.Value > last.Value {
				*last = p
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// clarity scores how cleanly the main (highest) peak stands out from any
// earlier competing peak: main / (main + strongest earlier competitor),
// exactly 1.0 when no competitor exists.
func clarity(peaks []Peak) float64 {
	if len(peaks) == 0 {
		return 1.0
	}

	main := peaks[0]
	for _, p := range peaks[1:] {
		if p.Value > main.Value {
			main = p
		}
	}

	competitor := 0.0
	found := false
	for _, p := range peaks {
		if p.Frame < main.Frame && p.Value > competitor {
			competitor = p.Value
			found = true
		}
	}
	if !found || main.Value+competitor == 0 {
		return 1.0
	}
	return main.Value / (main.Value + competitor)
}
