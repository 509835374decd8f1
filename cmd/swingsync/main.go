package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mkarlden/swingsync/internal/batch"
	"github.com/mkarlden/swingsync/internal/config"
	"github.com/mkarlden/swingsync/internal/events"
	"github.com/mkarlden/swingsync/internal/export"
	"github.com/mkarlden/swingsync/internal/metrics"
	"github.com/mkarlden/swingsync/internal/probe"
	"github.com/mkarlden/swingsync/internal/report"
	"github.com/mkarlden/swingsync/internal/sim"
)

var (
	configFile string
	preset     string
	verbose    bool

	frames    int
	pendulums int
	seed      int64

	csvPath    string
	chartPath  string
	metricName string
	plotWidth  int
	plotHeight int

	slots      int
	maxRetries int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swingsync",
		Short: "chaos probes for syncing pendulum renders to music",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "run a physics probe and report boom detection",
		RunE:  runProbe,
	}
	probeCmd.Flags().IntVar(&frames, "frames", 0, "probe frames (overrides config)")
	probeCmd.Flags().IntVar(&pendulums, "pendulums", 0, "ensemble size (overrides config)")
	probeCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
	probeCmd.Flags().StringVar(&csvPath, "csv", "", "export metric series to CSV")
	probeCmd.Flags().StringVar(&chartPath, "chart", "", "export metric series to an HTML chart")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "fill render slots with accepted simulations",
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&frames, "frames", 0, "probe frames (overrides config)")
	batchCmd.Flags().IntVar(&pendulums, "pendulums", 0, "ensemble size (overrides config)")
	batchCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
	batchCmd.Flags().IntVar(&slots, "slots", 0, "slots to fill (overrides config)")
	batchCmd.Flags().IntVar(&maxRetries, "max-retries", -1, "retries per slot (overrides config)")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "run a probe and plot a metric series in the terminal",
		RunE:  runPlot,
	}
	plotCmd.Flags().IntVar(&frames, "frames", 0, "probe frames (overrides config)")
	plotCmd.Flags().IntVar(&pendulums, "pendulums", 0, "ensemble size (overrides config)")
	plotCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
	plotCmd.Flags().StringVar(&metricName, "metric", metrics.Variance, "metric series to plot")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	chartCmd := &cobra.Command{
		Use:   "chart [output.html]",
		Short: "run a probe and export an HTML chart",
		Args:  cobra.ExactArgs(1),
		RunE:  runChart,
	}
	chartCmd.Flags().IntVar(&frames, "frames", 0, "probe frames (overrides config)")
	chartCmd.Flags().IntVar(&pendulums, "pendulums", 0, "ensemble size (overrides config)")
	chartCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a starting config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				cfg = config.GetPreset(preset)
				if cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(probeCmd, batchCmd, plotCmd, chartCmd, configCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("frames") {
		cfg.Probe.Frames = frames
	}
	if cmd.Flags().Changed("pendulums") {
		cfg.Probe.Pendulums = pendulums
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("slots") {
		cfg.Batch.Slots = slots
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.Batch.MaxRetries = maxRetries
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// physicsProbe runs phase 1 on a fresh ensemble and finalizes it.
func physicsProbe(cmd *cobra.Command) (*probe.Pipeline, *probe.PhaseResults, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	phase, err := cfg.PhysicsPhase()
	if err != nil {
		return nil, nil, err
	}

	runSeed := cfg.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	pipe := probe.NewPipeline(phase)
	ens := sim.NewEnsemble(sim.NewDoublePendulum(), sim.EnsembleConfig{
		Pendulums:    phase.Pendulums,
		Perturbation: cfg.Probe.Perturbation,
		Seed:         runSeed,
		MaxDt:        cfg.Probe.MaxDt,
	})

	start := time.Now()
	err = ens.Run(context.Background(), phase.Frames, phase.FrameDuration, func(frame int, bodies []metrics.BodyState) error {
		return pipe.FeedStates(bodies)
	})
	if err != nil {
		return nil, nil, err
	}

	res, err := pipe.FinalizePhase()
	if err != nil {
		return nil, nil, err
	}
	logrus.WithFields(logrus.Fields{
		"frames":  res.Frames,
		"elapsed": time.Since(start),
		"seed":    runSeed,
	}).Debug("probe finished")
	return pipe, res, nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	pipe, res, err := physicsProbe(cmd)
	if err != nil {
		return err
	}

	fmt.Println(report.PhaseSummary(res))

	if csvPath != "" {
		if err := pipe.Collector().ExportCSV(csvPath, pipe.Collector().Names()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvPath)
	}
	if chartPath != "" {
		if err := export.WriteChart(pipe.Collector(), nil, pipe.Detector().Events(), chartPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", chartPath)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	genCfg, err := cfg.GeneratorConfig()
	if err != nil {
		return err
	}

	// No renderer is attached here, so acceptance rides on the physics
	// phase alone. The render phase runs when the GPU pipeline registers
	// itself as a batch.Renderer.
	gen := batch.NewGenerator(genCfg, nil)
	results, err := gen.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Println(report.BatchSummary(results))
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	pipe, res, err := physicsProbe(cmd)
	if err != nil {
		return err
	}

	s, ok := pipe.Collector().Series(metricName)
	if !ok {
		return fmt.Errorf("unknown metric: %s (have %v)", metricName, pipe.Collector().Names())
	}

	caption := metricName
	if ev, ok := pipe.Detector().Event(events.Boom); ok {
		caption = fmt.Sprintf("%s (boom at frame %d)", metricName, ev.Frame)
	}
	fmt.Println(report.Plot(s.Float64s(), caption, plotWidth, plotHeight))
	fmt.Println(report.PhaseSummary(res))
	return nil
}

func runChart(cmd *cobra.Command, args []string) error {
	pipe, _, err := physicsProbe(cmd)
	if err != nil {
		return err
	}
	if err := export.WriteChart(pipe.Collector(), nil, pipe.Detector().Events(), args[0]); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
