// Package config provides configuration loading and management for the
// compartment segmentation pipeline. It handles loading configuration from
// YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the pipeline configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores the threshold sweep may use
		NumCores int `yaml:"numCores"`

		// Channel is the acquisition channel to segment
		Channel int `yaml:"channel"`

		// Frame is the time frame to segment
		Frame int `yaml:"frame"`

		// CacheDir is where per-slice segmentation results are memoized;
		// empty disables caching
		CacheDir string `yaml:"cacheDir"`
	} `yaml:"processing"`

	// Texture parameters for the local-entropy map
	Texture struct {
		// EntropyRadius is the disk radius of the entropy neighborhood in pixels
		EntropyRadius int `yaml:"entropyRadius"`

		// SmoothSigma enables Gaussian pre-smoothing when > 0
		SmoothSigma float64 `yaml:"smoothSigma"`
	} `yaml:"texture"`

	// Segmentation parameters for the threshold sweep
	Segmentation struct {
		// OffsetStart and OffsetStop bound the swept offset, inclusive-exclusive
		OffsetStart int `yaml:"offsetStart"`
		OffsetStop  int `yaml:"offsetStop"`

		// BlockSize is the adaptive-threshold window side in pixels; must be odd
		BlockSize int `yaml:"blockSize"`

		// IsoLevel is the contour-extraction isovalue on the label grid
		IsoLevel float64 `yaml:"isoLevel"`

		// MinArea drops hypothesis polygons below this enclosed area; 0 keeps all
		MinArea float64 `yaml:"minArea"`
	} `yaml:"segmentation"`

	// Clustering parameters for centroid consolidation
	Clustering struct {
		// Eps is the DBSCAN neighborhood radius in standardized units
		Eps float64 `yaml:"eps"`

		// MinSamples is the minimum neighborhood size for a core point
		MinSamples int `yaml:"minSamples"`
	} `yaml:"clustering"`

	// Output parameters
	Output struct {
		// SaveOverlays renders per-z cluster overlays as PNG files
		SaveOverlays bool `yaml:"saveOverlays"`

		// OverlayDir is the directory overlays are written to
		OverlayDir string `yaml:"overlayDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with the reference defaults
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Channel = 0
	cfg.Processing.Frame = 0
	cfg.Processing.CacheDir = ""

	cfg.Texture.EntropyRadius = 30
	cfg.Texture.SmoothSigma = 0

	cfg.Segmentation.OffsetStart = 1
	cfg.Segmentation.OffsetStop = 300
	cfg.Segmentation.BlockSize = 35
	cfg.Segmentation.IsoLevel = 0.9
	cfg.Segmentation.MinArea = 0

	cfg.Clustering.Eps = 0.01
	cfg.Clustering.MinSamples = 10

	cfg.Output.SaveOverlays = false
	cfg.Output.OverlayDir = "overlays"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
