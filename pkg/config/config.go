// Package config provides configuration loading and management for vmmadjust.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"vmmfrc/internal/models"
	"vmmfrc/pkg/adjustment"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input describes where the volume comes from
	Input struct {
		// Path is a raw volume file or a directory of slice images
		Path string `yaml:"path"`

		// Format is "raw" for headerless binary volumes or "stack" for an image directory
		Format string `yaml:"format"`

		// Width, Height and Depth are required for raw volumes
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
		Depth  int `yaml:"depth"`

		// DType is the sample type of raw volumes
		DType models.DType `yaml:"dtype"`

		// ByteOrder is "little" or "big"
		ByteOrder string `yaml:"byteOrder"`
	} `yaml:"input"`

	// Adjustment holds the settings applied when no settings file or flag overrides them
	Adjustment adjustment.Settings `yaml:"adjustment"`

	// Output parameters
	Output struct {
		// Path is the raw file or directory receiving the adjusted volume
		Path string `yaml:"path"`

		// Format is "raw", "tiff" or "png"
		Format string `yaml:"format"`

		// SettingsFile, when set, receives an export of the applied settings
		SettingsFile string `yaml:"settingsFile"`

		// PreviewAxis and PreviewPosition select the slice rendered to PreviewPath
		PreviewAxis     string `yaml:"previewAxis"`
		PreviewPosition int    `yaml:"previewPosition"`
		PreviewPath     string `yaml:"previewPath"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Verbose enables debug logging regardless of Level
		Verbose bool `yaml:"verbose"`

		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Format = "raw"
	cfg.Input.DType = models.Uint16
	cfg.Input.ByteOrder = "little"

	cfg.Adjustment = adjustment.DefaultSettings()

	cfg.Output.Path = "adjusted.raw"
	cfg.Output.Format = "raw"
	cfg.Output.PreviewAxis = "z"
	cfg.Output.PreviewPosition = -1 // middle slice

	cfg.Logging.Level = "info"

	return cfg
}

// Validate checks that the configured values are usable
func (c *Config) Validate() error {
	switch c.Input.Format {
	case "raw":
		if c.Input.Width <= 0 || c.Input.Height <= 0 || c.Input.Depth <= 0 {
			return fmt.Errorf("raw input needs positive width, height and depth, got %dx%dx%d",
				c.Input.Width, c.Input.Height, c.Input.Depth)
		}
	case "stack":
	default:
		return fmt.Errorf("unknown input format %q (must be raw or stack)", c.Input.Format)
	}

	switch c.Input.ByteOrder {
	case "little", "big":
	default:
		return fmt.Errorf("unknown byte order %q (must be little or big)", c.Input.ByteOrder)
	}

	switch c.Output.Format {
	case "raw", "tiff", "png":
	default:
		return fmt.Errorf("unknown output format %q (must be raw, tiff or png)", c.Output.Format)
	}

	switch c.Output.PreviewAxis {
	case "x", "y", "z":
	default:
		return fmt.Errorf("unknown preview axis %q (must be x, y or z)", c.Output.PreviewAxis)
	}

	return nil
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
