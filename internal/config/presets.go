package config

import (
	"sort"

	"github.com/mkarlden/swingsync/internal/metrics"
)

// Presets are named starting configurations for common workflows.
func Presets() map[string]*Config {
	quick := DefaultConfig()
	quick.Probe.Pendulums = 16
	quick.Probe.Frames = 240
	quick.Probe.RenderFrames = 120
	quick.Batch.Slots = 1
	quick.Batch.MaxRetries = 1

	standard := DefaultConfig()

	cinematic := DefaultConfig()
	cinematic.Probe.Pendulums = 256
	cinematic.Probe.Frames = 1800
	cinematic.Probe.RenderFrames = 900
	cinematic.Probe.BoomMetric = metrics.CircularSpread
	cinematic.Probe.Boom.Method = "derivative_peak"
	cinematic.Probe.Boom.SmoothWindow = 5
	cinematic.Batch.Slots = 8
	cinematic.Batch.MaxRetries = 5

	return map[string]*Config{
		"quick":     quick,
		"standard":  standard,
		"cinematic": cinematic,
	}
}

func GetPreset(name string) *Config {
	return Presets()[name]
}

func ListPresets() []string {
	presets := Presets()
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
