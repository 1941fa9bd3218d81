// Package config handles pixelmesh configuration loading and management.
package config

import "github.com/Faultbox/pixelmesh/internal/mesh"

// Config holds all pipeline settings.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig describes how source images are read.
type InputConfig struct {
	Path      string  `yaml:"path"`       // Default image when none is given on the command line
	PixelSize float64 `yaml:"pixel_size"` // Edge length of one pixel in millimeters
}

// MeshConfig holds region merging and extrusion settings.
type MeshConfig struct {
	ColorHeight  float64 `yaml:"color_height"` // Height of the colored layer above Z=0
	BaseHeight   float64 `yaml:"base_height"`  // Backing plate thickness; <= 0 disables the plate
	Connectivity int     `yaml:"connectivity"` // 0, 4 or 8
	Strategy     string  `yaml:"strategy"`     // pixel, rectangle or polygon
	TrimWeak     bool    `yaml:"trim_weak"`
	Workers      int     `yaml:"workers"` // 0 means one per CPU
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Path  string `yaml:"path"`  // STL file; empty skips export
	Split bool   `yaml:"split"` // One STL per object instead of one combined file
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			PixelSize: 1.0,
		},
		Mesh: MeshConfig{
			ColorHeight:  1.0,
			BaseHeight:   1.0,
			Connectivity: 8,
			Strategy:     mesh.NameRectangle,
			TrimWeak:     false,
			Workers:      0,
		},
		Output: OutputConfig{
			Path:  "",
			Split: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
