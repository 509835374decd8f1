package metrics

// Metric names are a stable contract shared with config files, CSV exports
// and annotation tooling. The exact strings must not change.
const (
	Variance           = "variance"
	SpreadRatio        = "spread_ratio"
	CircularSpread     = "circular_spread"
	AngularRange       = "angular_range"
	TotalEnergy        = "total_energy"
	AngularCausticness = "angular_causticness"
	MaxValue           = "max_value"
	Brightness         = "brightness"
	Coverage           = "coverage"
	EdgeEnergy         = "edge_energy"
	ColorVariance      = "color_variance"
	Causticness        = "causticness"
)

// PhysicsNames lists the metrics derived from raw pendulum state each frame.
var PhysicsNames = []string{
	Variance,
	SpreadRatio,
	CircularSpread,
	AngularRange,
	TotalEnergy,
	AngularCausticness,
}

// GPUNames lists the metrics supplied by an external renderer.
var GPUNames = []string{
	MaxValue,
	Brightness,
	Coverage,
	EdgeEnergy,
	ColorVariance,
}
