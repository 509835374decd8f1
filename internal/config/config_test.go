package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/metrics"
	"github.com/mkarlden/swingsync/internal/predict"
	"github.com/mkarlden/swingsync/internal/probe"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FrameRate != DefaultFrameRate {
		t.Errorf("frame rate = %f, want %f", cfg.FrameRate, float64(DefaultFrameRate))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if got := cfg.FrameDuration(); got != 1.0/60.0 {
		t.Errorf("frame duration = %f, want 1/60", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frame rate", func(c *Config) { c.FrameRate = 0 }},
		{"zero frames", func(c *Config) { c.Probe.Frames = 0 }},
		{"zero pendulums", func(c *Config) { c.Probe.Pendulums = 0 }},
		{"zero slots", func(c *Config) { c.Batch.Slots = 0 }},
		{"negative retries", func(c *Config) { c.Batch.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Seed = 99
	cfg.Probe.Pendulums = 32
	cfg.Probe.BoomMetric = metrics.CircularSpread

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Seed != 99 {
		t.Errorf("seed = %d, want 99", loaded.Seed)
	}
	if loaded.Probe.Pendulums != 32 {
		t.Errorf("pendulums = %d, want 32", loaded.Probe.Pendulums)
	}
	if loaded.Probe.BoomMetric != metrics.CircularSpread {
		t.Errorf("boom metric = %q, want %q", loaded.Probe.BoomMetric, metrics.CircularSpread)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("probe:\n  frames: 120\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Probe.Frames != 120 {
		t.Errorf("frames = %d, want 120", cfg.Probe.Frames)
	}
	if cfg.Probe.Pendulums != DefaultPendulums {
		t.Errorf("pendulums = %d, want default %d", cfg.Probe.Pendulums, DefaultPendulums)
	}
}

func TestLoadInvalidRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("frame_rate: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative frame rate")
	}
}

func TestPhysicsPhase(t *testing.T) {
	cfg := DefaultConfig()
	phase, err := cfg.PhysicsPhase()
	if err != nil {
		t.Fatalf("physics phase: %v", err)
	}
	if phase.Render {
		t.Error("physics phase should not render")
	}
	if phase.Frames != DefaultFrames {
		t.Errorf("frames = %d, want %d", phase.Frames, DefaultFrames)
	}
	if phase.Boom.Method != predict.MethodThresholdCross {
		t.Errorf("boom method = %v, want threshold_cross", phase.Boom.Method)
	}
	if len(phase.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(phase.Events))
	}
	if phase.Events[0].Event != events.Boom || phase.Events[1].Event != events.Chaos {
		t.Errorf("event order = %q, %q", phase.Events[0].Event, phase.Events[1].Event)
	}
	if len(phase.Filter.Criteria) != 1 || phase.Filter.Criteria[0].Kind != probe.EventRequired {
		t.Errorf("filter = %+v, want one event_required criterion", phase.Filter.Criteria)
	}
}

func TestRenderPhase(t *testing.T) {
	cfg := DefaultConfig()
	phase, err := cfg.RenderPhase()
	if err != nil {
		t.Fatalf("render phase: %v", err)
	}
	if !phase.Render {
		t.Error("render phase should render")
	}
	if phase.Frames != DefaultRenderFrames {
		t.Errorf("frames = %d, want %d", phase.Frames, DefaultRenderFrames)
	}
}

func TestTargetsConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Targets = []TargetConfig{
		{Name: "boom", Metric: metrics.Variance, Detection: DetectionConfig{Method: "first_peak"}},
		{Name: "quality", Kind: "score", Score: ScoreConfig{Method: "sustain", Metric: metrics.Variance}},
	}

	phase, err := cfg.PhysicsPhase()
	if err != nil {
		t.Fatalf("physics phase: %v", err)
	}
	if len(phase.Targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(phase.Targets))
	}
	if phase.Targets[0].Kind != predict.KindFrame || phase.Targets[0].Frame.Method != predict.MethodFirstPeak {
		t.Errorf("target 0 = %+v, want first_peak frame target", phase.Targets[0])
	}
	if phase.Targets[1].Kind != predict.KindScore || phase.Targets[1].Score.Method != predict.ScoreSustain {
		t.Errorf("target 1 = %+v, want sustain score target", phase.Targets[1])
	}

	cfg.Targets = []TargetConfig{{Name: "bad", Kind: "other"}}
	if _, err := cfg.PhysicsPhase(); err == nil {
		t.Error("expected error for unknown target kind")
	}
}

func TestFilterConversionRejectsUnknownKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filter = []FilterConfig{{Kind: "bogus"}}
	if _, err := cfg.PhysicsPhase(); err == nil {
		t.Error("expected error for unknown filter kind")
	}
}

func TestGeneratorConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	gen, err := cfg.GeneratorConfig()
	if err != nil {
		t.Fatalf("generator config: %v", err)
	}
	if gen.Slots != DefaultSlots || gen.MaxRetries != DefaultMaxRetries {
		t.Errorf("slots/retries = %d/%d, want defaults", gen.Slots, gen.MaxRetries)
	}
	if gen.Seed != 7 {
		t.Errorf("seed = %d, want 7", gen.Seed)
	}
	if !gen.Render.Render || gen.Physics.Render {
		t.Error("phase render flags inverted")
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != 3 {
		t.Fatalf("presets = %v, want 3", names)
	}
	for _, name := range names {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %q missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
}
