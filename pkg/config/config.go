// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/user/slicerec/pkg/framebuffer"
	"github.com/user/slicerec/pkg/orchestrator"
	"github.com/user/slicerec/pkg/ports"
	"github.com/user/slicerec/pkg/recorder"
	"gopkg.in/yaml.v3"
)

// Source types
const (
	SourceYUV     = "yuv"
	SourcePattern = "pattern"
)

// SessionPrefix prefixes the per-session slice root under TempDir.
const SessionPrefix = "slicerec-"

// Config represents the full configuration for slicerec.
type Config struct {
	// Storage
	TempDir   string `yaml:"temp_dir"`
	OutputDir string `yaml:"output_dir"`

	// Slicing
	MaxSliceBytes int `yaml:"max_slice_bytes"`

	// Encoding
	FFmpegPath    string        `yaml:"ffmpeg_path"`
	EncodeTimeout time.Duration `yaml:"encode_timeout"`
	StopTimeout   time.Duration `yaml:"stop_timeout"`
	Probe         bool          `yaml:"probe"`

	// Sources
	Sources []SourceConfig `yaml:"sources"`

	// Observability
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
	Summary     string `yaml:"summary"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// SourceConfig describes one frame source.
type SourceConfig struct {
	Type        string `yaml:"type"` // "yuv" or "pattern"
	Path        string `yaml:"path"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	FPS         int    `yaml:"fps"`
	Frames      int    `yaml:"frames"`
	SwitchEvery int    `yaml:"switch_every"`
	Pace        bool   `yaml:"pace"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		TempDir:   os.TempDir(),
		OutputDir: "./slices",

		MaxSliceBytes: framebuffer.DefaultMaxBytes,

		StopTimeout: 10 * time.Minute,
		Probe:       true,

		LogLevel: "info",

		DebugDir: "./debug",
	}
}

// DefaultSource returns the source used when none is configured.
func DefaultSource() SourceConfig {
	return SourceConfig{
		Type:   SourcePattern,
		Width:  640,
		Height: 480,
		FPS:    30,
		Frames: 300,
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the recorder cannot run with.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.MaxSliceBytes < 0 {
		return fmt.Errorf("max_slice_bytes must not be negative")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	for i, s := range c.Sources {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single source.
func (s SourceConfig) Validate() error {
	switch s.Type {
	case SourceYUV:
		if s.Path == "" {
			return fmt.Errorf("yuv source requires a path")
		}
	case SourcePattern:
		if s.Frames == 0 && !s.Pace {
			return fmt.Errorf("an unpaced pattern source requires frames")
		}
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("invalid fps %d", s.FPS)
	}
	return nil
}

// NewSessionDir returns a fresh slice root under TempDir.
func (c Config) NewSessionDir() string {
	return filepath.Join(c.TempDir, SessionPrefix+uuid.NewString())
}

// ToRecorderConfig converts Config to recorder.Config for the given slice root.
func (c Config) ToRecorderConfig(rootDir string) recorder.Config {
	return recorder.Config{
		Sources:       len(c.Sources),
		RootDir:       rootDir,
		OutputDir:     c.OutputDir,
		MaxSliceBytes: c.MaxSliceBytes,
		EncodeTimeout: c.EncodeTimeout,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		StopTimeout: c.StopTimeout,
	}
}
