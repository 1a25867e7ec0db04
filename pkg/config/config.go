// Package config provides configuration loading and management for cscan.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"cscan/internal/models"
	"cscan/pkg/colormap"
	"cscan/pkg/processor"
	"cscan/pkg/raster"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Width and Height are the output raster size in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// Threshold binarizes the grid before colorization when set, and is
		// the detection threshold
		Threshold *float64 `yaml:"threshold,omitempty"`

		// Smoothing applies the 3x3 Gaussian kernel
		Smoothing bool `yaml:"smoothing"`

		// Normalize rescales amplitudes to [0,1] first
		Normalize bool `yaml:"normalize"`

		// Colormap is one of jet, viridis, grayscale, thermal
		Colormap string `yaml:"colormap"`

		// Workers bounds the goroutines used for smoothing
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Synthetic data parameters
	Synthetic struct {
		Rows        int    `yaml:"rows"`
		Cols        int    `yaml:"cols"`
		DefectCount int    `yaml:"defectCount"`
		Seed        uint64 `yaml:"seed"`
	} `yaml:"synthetic"`

	// Output parameters
	Output struct {
		// ImageFormat is used when the output path has no recognised extension
		ImageFormat string `yaml:"imageFormat"`

		// OverlayDefects outlines detected defects on the raster
		OverlayDefects bool `yaml:"overlayDefects"`

		// LogLevel is a zerolog level name
		LogLevel string `yaml:"logLevel"`

		// Verbose prints each defect to stdout
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.Width = 512
	cfg.Processing.Height = 512
	cfg.Processing.Smoothing = true
	cfg.Processing.Normalize = true
	cfg.Processing.Colormap = colormap.Jet.String()
	cfg.Processing.Workers = runtime.NumCPU()

	cfg.Synthetic.Rows = 100
	cfg.Synthetic.Cols = 100
	cfg.Synthetic.DefectCount = 2
	cfg.Synthetic.Seed = 1

	cfg.Output.ImageFormat = raster.FormatPNG
	cfg.Output.OverlayDefects = false
	cfg.Output.LogLevel = "info"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the configuration for values the pipeline would reject
func (c *Config) Validate() error {
	if c.Processing.Width <= 0 {
		return &models.ConfigurationError{Field: "processing.width", Value: fmt.Sprint(c.Processing.Width), Reason: "must be positive"}
	}
	if c.Processing.Height <= 0 {
		return &models.ConfigurationError{Field: "processing.height", Value: fmt.Sprint(c.Processing.Height), Reason: "must be positive"}
	}
	if _, err := colormap.Parse(c.Processing.Colormap); err != nil {
		return err
	}
	if c.Synthetic.Rows < 0 || c.Synthetic.Cols < 0 {
		return &models.ConfigurationError{Field: "synthetic", Value: fmt.Sprintf("%dx%d", c.Synthetic.Rows, c.Synthetic.Cols), Reason: "dimensions must be non-negative"}
	}
	if c.Synthetic.DefectCount < 0 {
		return &models.ConfigurationError{Field: "synthetic.defectCount", Value: fmt.Sprint(c.Synthetic.DefectCount), Reason: "must be non-negative"}
	}
	if _, err := raster.FormatFromPath("out." + c.Output.ImageFormat); err != nil {
		return err
	}
	return nil
}

// ProcessingOptions converts the processing section into pipeline options
func (c *Config) ProcessingOptions() processor.Options {
	opts := processor.Options{
		Width:     c.Processing.Width,
		Height:    c.Processing.Height,
		Smoothing: c.Processing.Smoothing,
		Normalize: c.Processing.Normalize,
		Colormap:  c.Processing.Colormap,
	}
	if c.Processing.Threshold != nil {
		t := *c.Processing.Threshold
		opts.Threshold = &t
	}
	return opts
}

// LoadConfig reads a YAML config over the defaults and validates the result.
// A missing file yields the defaults; an unknown colormap or a non-positive
// raster size is reported as a ConfigurationError.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig validates cfg and writes it as YAML. Nothing is written for an
// invalid configuration, so a saved file always loads back.
func SaveConfig(cfg *Config, configPath string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile writes DefaultConfig to configPath, giving users a
// template listing every processing, synthetic and output key
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
