package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cscan/internal/logger"
	"cscan/internal/models"
	"cscan/pkg/config"
	"cscan/pkg/detection"
	"cscan/pkg/gridio"
	"cscan/pkg/processor"
	"cscan/pkg/raster"
)

// cliFlags holds the parsed command line
type cliFlags struct {
	fs *flag.FlagSet

	configPath   string
	inputPath    string
	useSynthetic bool
	rows         int
	cols         int
	defects      int
	seed         uint64
	outputPath   string
	reportPath   string
	cmapName     string
	threshold    float64
	noThreshold  bool
	width        int
	height       int
	smooth       bool
	normalize    bool
	overlay      bool
	logLevel     string
	initConfig   bool
}

// parseFlags parses args (without the program name)
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{fs: flag.NewFlagSet("cscan", flag.ContinueOnError)}
	fs := f.fs
	fs.StringVar(&f.configPath, "config", "cscan.yaml", "YAML configuration file")
	fs.StringVar(&f.inputPath, "input", "", "Amplitude grid (.csv or .json); omit with -synthetic")
	fs.BoolVar(&f.useSynthetic, "synthetic", false, "Generate a synthetic grid instead of reading -input")
	fs.IntVar(&f.rows, "rows", 0, "Synthetic grid rows (overrides config)")
	fs.IntVar(&f.cols, "cols", 0, "Synthetic grid columns (overrides config)")
	fs.IntVar(&f.defects, "defects", 0, "Synthetic blob count (overrides config)")
	fs.Uint64Var(&f.seed, "seed", 0, "Synthetic seed (overrides config)")
	fs.StringVar(&f.outputPath, "output", "cscan.png", "Output image (.png, .bmp, .tif)")
	fs.StringVar(&f.reportPath, "report", "", "Defect report (.json or .yaml); requires a threshold")
	fs.StringVar(&f.cmapName, "colormap", "", "Colormap: jet, viridis, grayscale, thermal")
	fs.Float64Var(&f.threshold, "threshold", 0, "Binarization and detection threshold (overrides config)")
	fs.BoolVar(&f.noThreshold, "no-threshold", false, "Ignore any configured threshold (image only)")
	fs.IntVar(&f.width, "width", 0, "Output width in pixels")
	fs.IntVar(&f.height, "height", 0, "Output height in pixels")
	fs.BoolVar(&f.smooth, "smooth", true, "Apply 3x3 Gaussian smoothing")
	fs.BoolVar(&f.normalize, "normalize", true, "Normalize amplitudes to [0,1]")
	fs.BoolVar(&f.overlay, "overlay", false, "Outline detected defects on the image")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.initConfig, "init-config", false, "Write a default config to -config and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.noThreshold && f.isSet("threshold") {
		return nil, &models.InvalidArgumentError{Arg: "threshold", Reason: "-threshold and -no-threshold are mutually exclusive"}
	}
	return f, nil
}

func (f *cliFlags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// apply overrides cfg with the flags set explicitly on the command line.
// A threshold is present only when -threshold was given, so any value,
// including a negative one, is accepted.
func (f *cliFlags) apply(cfg *config.Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "rows":
			cfg.Synthetic.Rows = f.rows
		case "cols":
			cfg.Synthetic.Cols = f.cols
		case "defects":
			cfg.Synthetic.DefectCount = f.defects
		case "seed":
			cfg.Synthetic.Seed = f.seed
		case "colormap":
			cfg.Processing.Colormap = f.cmapName
		case "threshold":
			t := f.threshold
			cfg.Processing.Threshold = &t
		case "width":
			cfg.Processing.Width = f.width
		case "height":
			cfg.Processing.Height = f.height
		case "smooth":
			cfg.Processing.Smoothing = f.smooth
		case "normalize":
			cfg.Processing.Normalize = f.normalize
		case "overlay":
			cfg.Output.OverlayDefects = f.overlay
		case "log-level":
			cfg.Output.LogLevel = f.logLevel
		}
	})

	if f.noThreshold {
		cfg.Processing.Threshold = nil
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if f.initConfig {
		if err := config.CreateDefaultConfigFile(f.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", f.configPath)
		return
	}

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	f.apply(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.Output.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	log := logger.Component(logger.NewConsole(level), "cscan")

	if err := run(cfg, log, f.inputPath, f.useSynthetic, f.outputPath, f.reportPath); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger, inputPath string, useSynthetic bool, outputPath, reportPath string) error {
	p := processor.New(
		processor.WithLogger(log),
		processor.WithWorkers(cfg.Processing.Workers),
		processor.WithSeed(cfg.Synthetic.Seed),
	)

	// Load or synthesize the amplitude grid
	var (
		grid   *models.Grid
		source string
		err    error
	)
	switch {
	case useSynthetic:
		grid, err = p.GenerateSyntheticData(cfg.Synthetic.Rows, cfg.Synthetic.Cols, cfg.Synthetic.DefectCount)
		source = fmt.Sprintf("synthetic(seed=%d)", cfg.Synthetic.Seed)
	case inputPath != "":
		grid, err = gridio.Load(inputPath)
		source = inputPath
	default:
		return &models.InvalidArgumentError{Arg: "input", Reason: "either -input or -synthetic is required"}
	}
	if err != nil {
		return fmt.Errorf("failed to obtain grid: %w", err)
	}
	log.Info().Str("source", source).Int("rows", grid.Rows).Int("cols", grid.Cols).Msg("grid loaded")

	opts := cfg.ProcessingOptions()
	if filepath.Ext(outputPath) == "" {
		outputPath += "." + cfg.Output.ImageFormat
	}

	startTime := time.Now()

	// Without a threshold only the image can be produced
	if opts.Threshold == nil {
		if reportPath != "" {
			return &models.InvalidArgumentError{Arg: "threshold", Reason: "a defect report requires a threshold"}
		}
		img, err := p.Process(grid, opts)
		if err != nil {
			return err
		}
		if err := raster.Save(img, outputPath); err != nil {
			return err
		}
		log.Info().Str("output", outputPath).Dur("elapsed", time.Since(startTime)).Msg("image written")
		return nil
	}

	analysis, err := p.Analyze(grid, opts, cfg.Output.OverlayDefects)
	if err != nil {
		return err
	}
	if err := raster.Save(analysis.Image, outputPath); err != nil {
		return err
	}
	log.Info().Str("output", outputPath).Dur("elapsed", time.Since(startTime)).Msg("image written")

	if cfg.Output.Verbose {
		fmt.Printf("Detected %d defect(s) above %.3f:\n", len(analysis.Defects), *opts.Threshold)
		for _, d := range analysis.Defects {
			fmt.Println("  " + detection.String(d))
		}
	}

	if reportPath != "" {
		report := &gridio.Report{
			Source:    source,
			Rows:      grid.Rows,
			Cols:      grid.Cols,
			Threshold: *opts.Threshold,
			Stats:     analysis.Stats,
			Defects:   analysis.Defects,
		}
		if err := gridio.SaveReport(report, reportPath); err != nil {
			return err
		}
		log.Info().Str("report", reportPath).Str("format", strings.TrimPrefix(filepath.Ext(reportPath), ".")).Msg("report written")
	}

	return nil
}
