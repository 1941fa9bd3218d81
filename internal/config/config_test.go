package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Input.PixelSize != 1.0 {
		t.Errorf("expected pixel size 1.0, got %f", cfg.Input.PixelSize)
	}
	if cfg.Mesh.ColorHeight != 1.0 {
		t.Errorf("expected color height 1.0, got %f", cfg.Mesh.ColorHeight)
	}
	if cfg.Mesh.BaseHeight != 1.0 {
		t.Errorf("expected base height 1.0, got %f", cfg.Mesh.BaseHeight)
	}
	if cfg.Mesh.Connectivity != 8 {
		t.Errorf("expected connectivity 8, got %d", cfg.Mesh.Connectivity)
	}
	if cfg.Mesh.Strategy != "rectangle" {
		t.Errorf("expected strategy 'rectangle', got %s", cfg.Mesh.Strategy)
	}
	if cfg.Mesh.TrimWeak {
		t.Error("expected trim_weak to be false by default")
	}
	if cfg.Output.Path != "" {
		t.Errorf("expected empty output path, got %s", cfg.Output.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pixelmesh.yaml")

	yamlContent := `
input:
  path: "sprite.png"
  pixel_size: 0.4

mesh:
  color_height: 0.6
  base_height: 0
  connectivity: 4
  strategy: "polygon"
  trim_weak: true
  workers: 3

output:
  path: "out.stl"
  split: true

logging:
  level: "debug"
  log_file: "pixelmesh.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if want := filepath.Join(tmpDir, "sprite.png"); cfg.Input.Path != want {
		t.Errorf("expected input path %s, got %s", want, cfg.Input.Path)
	}
	if cfg.Input.PixelSize != 0.4 {
		t.Errorf("expected pixel size 0.4, got %f", cfg.Input.PixelSize)
	}
	if cfg.Mesh.ColorHeight != 0.6 {
		t.Errorf("expected color height 0.6, got %f", cfg.Mesh.ColorHeight)
	}
	if cfg.Mesh.BaseHeight != 0 {
		t.Errorf("expected base height 0, got %f", cfg.Mesh.BaseHeight)
	}
	if cfg.Mesh.Connectivity != 4 {
		t.Errorf("expected connectivity 4, got %d", cfg.Mesh.Connectivity)
	}
	if cfg.Mesh.Strategy != "polygon" {
		t.Errorf("expected strategy polygon, got %s", cfg.Mesh.Strategy)
	}
	if !cfg.Mesh.TrimWeak {
		t.Error("expected trim_weak to be true")
	}
	if cfg.Mesh.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Mesh.Workers)
	}
	if cfg.Output.Path != filepath.Join(tmpDir, "out.stl") || !cfg.Output.Split {
		t.Errorf("expected split output to out.stl in %s, got %+v", tmpDir, cfg.Output)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != filepath.Join(tmpDir, "pixelmesh.log") {
		t.Errorf("expected log file pixelmesh.log in %s, got %s", tmpDir, cfg.Logging.LogFile)
	}
}

func TestLoadFromFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		invalid bool // the error must wrap ErrInvalid
	}{
		{"unknown key", "mesh:\n  colour_height: 2\n", false},
		{"unknown section", "render:\n  samples: 4\n", false},
		{"bad strategy", "mesh:\n  strategy: voxel\n", true},
		{"bad connectivity", "mesh:\n  connectivity: 6\n", true},
		{"infinite height", "mesh:\n  color_height: .inf\n", true},
		{"nan base", "mesh:\n  base_height: .nan\n", true},
		{"zero pixel size", "input:\n  pixel_size: 0\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pixelmesh.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			err := loadFromFile(Default(), path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.invalid && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelmesh.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("expected empty file to load, got %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromFileAbsolutePaths(t *testing.T) {
	tmpDir := t.TempDir()
	abs := filepath.Join(tmpDir, "elsewhere", "sprite.png")
	path := filepath.Join(tmpDir, "conf", "pixelmesh.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("input:\n  path: "+abs+"\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Input.Path != abs {
		t.Errorf("expected absolute path %s kept, got %s", abs, cfg.Input.Path)
	}
	if cfg.Output.Path != "" {
		t.Errorf("expected empty output path kept, got %s", cfg.Output.Path)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
mesh:
  connectivity: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/pixelmesh.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "pixelmesh.yaml")
	if err := os.WriteFile(configPath, []byte("mesh:\n  connectivity: 4\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find pixelmesh.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "dimensions",
			setup: func() {
				*flagPixelSize = 0.25
				*flagHeight = 2
			},
			verify: func(cfg *Config) {
				if cfg.Input.PixelSize != 0.25 {
					t.Errorf("expected pixel size 0.25, got %f", cfg.Input.PixelSize)
				}
				if cfg.Mesh.ColorHeight != 2 {
					t.Errorf("expected color height 2, got %f", cfg.Mesh.ColorHeight)
				}
			},
			teardown: func() {
				*flagPixelSize = 0
				*flagHeight = 0
			},
		},
		{
			name:  "base zero disables plate",
			setup: func() { *flagBase = 0 },
			verify: func(cfg *Config) {
				if cfg.Mesh.BaseHeight != 0 {
					t.Errorf("expected base height 0, got %f", cfg.Mesh.BaseHeight)
				}
			},
			teardown: func() { *flagBase = -1 },
		},
		{
			name:  "connectivity zero",
			setup: func() { *flagConnectivity = 0 },
			verify: func(cfg *Config) {
				if cfg.Mesh.Connectivity != 0 {
					t.Errorf("expected connectivity 0, got %d", cfg.Mesh.Connectivity)
				}
			},
			teardown: func() { *flagConnectivity = -1 },
		},
		{
			name: "strategy trim workers output",
			setup: func() {
				*flagStrategy = "polygon"
				*flagTrim = true
				*flagWorkers = 2
				*flagOutput = "model.stl"
				*flagSplit = true
			},
			verify: func(cfg *Config) {
				if cfg.Mesh.Strategy != "polygon" {
					t.Errorf("expected strategy polygon, got %s", cfg.Mesh.Strategy)
				}
				if !cfg.Mesh.TrimWeak {
					t.Error("expected trim_weak with trim flag")
				}
				if cfg.Mesh.Workers != 2 {
					t.Errorf("expected 2 workers, got %d", cfg.Mesh.Workers)
				}
				if cfg.Output.Path != "model.stl" || !cfg.Output.Split {
					t.Errorf("expected split output model.stl, got %+v", cfg.Output)
				}
			},
			teardown: func() {
				*flagStrategy = ""
				*flagTrim = false
				*flagWorkers = 0
				*flagOutput = ""
				*flagSplit = false
			},
		},
		{
			name:  "unset flags keep defaults",
			setup: func() {},
			verify: func(cfg *Config) {
				def := Default()
				if *cfg != *def {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
			teardown: func() {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "pixelmesh.yaml")

	yamlContent := `
mesh:
  color_height: 3
  base_height: 0.5
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagHeight = 1.5
	defer func() {
		*flagConfig = ""
		*flagHeight = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Height from flag, base from file
	if cfg.Mesh.ColorHeight != 1.5 {
		t.Errorf("expected color height 1.5 from flag, got %f", cfg.Mesh.ColorHeight)
	}
	if cfg.Mesh.BaseHeight != 0.5 {
		t.Errorf("expected base height 0.5 from file, got %f", cfg.Mesh.BaseHeight)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Input.PixelSize = 0
	cfg.Mesh.ColorHeight = -1
	cfg.Mesh.Connectivity = 6
	cfg.Mesh.Strategy = "voxel"
	cfg.Mesh.Workers = -2
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 6 {
		t.Errorf("expected 6 violations, got %d: %v", n, err)
	}
}

func TestValidate_NonFinite(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"infinite pixel size", func(c *Config) { c.Input.PixelSize = math.Inf(1) }},
		{"nan pixel size", func(c *Config) { c.Input.PixelSize = math.NaN() }},
		{"infinite color height", func(c *Config) { c.Mesh.ColorHeight = math.Inf(1) }},
		{"nan base height", func(c *Config) { c.Mesh.BaseHeight = math.NaN() }},
		{"infinite base height", func(c *Config) { c.Mesh.BaseHeight = math.Inf(1) }},
		{"negative infinite base height", func(c *Config) { c.Mesh.BaseHeight = math.Inf(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if n := len(multierr.Errors(err)); n != 1 {
				t.Errorf("expected 1 violation, got %d: %v", n, err)
			}
		})
	}
}

func TestValidate_BaseDisabled(t *testing.T) {
	for _, base := range []float64{0, -1} {
		cfg := Default()
		cfg.Mesh.BaseHeight = base
		if err := cfg.Validate(); err != nil {
			t.Errorf("base %v: expected valid config, got %v", base, err)
		}
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pixelmesh.yaml")

	cfg := Default()
	cfg.Mesh.Strategy = "polygon"
	cfg.Output.Path = "model.stl"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	want := *cfg
	want.Output.Path = filepath.Join(filepath.Dir(path), "model.stl")
	if *loaded != want {
		t.Errorf("expected %+v after reload, got %+v", want, *loaded)
	}
}

func TestSaveToInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelmesh.yaml")

	cfg := Default()
	cfg.Mesh.Connectivity = 5
	if err := cfg.SaveTo(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file written, got %v", err)
	}
}
