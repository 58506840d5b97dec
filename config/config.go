// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// DC forcing policies for the zero-frequency mode.
const (
	DCForcingZero  = "zero"
	DCForcingLimit = "limit"
)

// DefaultSourceKind is used when source.kind is left empty.
const DefaultSourceKind = "gaussian"

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Solver    SolverConfig    `yaml:"solver"`
	Source    SourceConfig    `yaml:"source"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Render    RenderConfig    `yaml:"render"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds the acoustic medium parameters.
// One map tile is one unit of length (metres).
type PhysicsConfig struct {
	SoundSpeed   float64 `yaml:"sound_speed"`   // Metres per second
	MaxFrequency float64 `yaml:"max_frequency"` // Highest simulated frequency in Hz (bounds voxel spacing)
}

// SolverConfig holds modal solver and scheduling parameters.
type SolverConfig struct {
	DCForcing         string `yaml:"dc_forcing"`         // "zero" or "limit"
	ParallelThreshold int    `yaml:"parallel_threshold"` // Minimum partitions before using the worker pool
	Workers           int    `yaml:"workers"`            // Worker goroutines (0 = GOMAXPROCS)
}

// SourceConfig holds defaults for point sources installed by touch events.
type SourceConfig struct {
	Kind      string  `yaml:"kind"`      // impulse, gaussian or ricker
	Duration  float64 `yaml:"duration"`  // Seconds of simulated time
	Amplitude float64 `yaml:"amplitude"` // Multiplier on the source shape
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Simulated seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // Steps averaged by the perf collector
}

// RenderConfig holds viewer defaults. None of these affect simulation results.
type RenderConfig struct {
	TilePixels     int     `yaml:"tile_pixels"`     // Screen pixels per map tile at zoom 1
	StepsPerFrame  int     `yaml:"steps_per_frame"` // Simulation steps per rendered frame
	PressureScale  float64 `yaml:"pressure_scale"`  // Pressure mapped to full colour intensity
	AutoScale      bool    `yaml:"auto_scale"`      // Track the running max |p| instead of PressureScale
	ShowGrid       bool    `yaml:"show_grid"`
	ShowPartitions bool    `yaml:"show_partitions"`
	ShowInterfaces bool    `yaml:"show_interfaces"`
	ShowPressure   bool    `yaml:"show_pressure"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	VoxelSpacing float64 // soundSpeed / (2*maxFrequency), Nyquist-bound
	DT           float64 // spacing / (soundSpeed*sqrt(3)), CFL-bound
	StencilScale float64 // soundSpeed^2 * spacing^2 / 180
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks that the physical parameters describe a usable simulation.
func (c *Config) Validate() error {
	if !(c.Physics.SoundSpeed > 0) || math.IsInf(c.Physics.SoundSpeed, 0) {
		return fmt.Errorf("physics.sound_speed must be positive, got %v", c.Physics.SoundSpeed)
	}
	if !(c.Physics.MaxFrequency > 0) || math.IsInf(c.Physics.MaxFrequency, 0) {
		return fmt.Errorf("physics.max_frequency must be positive, got %v", c.Physics.MaxFrequency)
	}
	switch c.Solver.DCForcing {
	case DCForcingZero, DCForcingLimit:
	case "":
		c.Solver.DCForcing = DCForcingZero
	default:
		return fmt.Errorf("solver.dc_forcing must be %q or %q, got %q", DCForcingZero, DCForcingLimit, c.Solver.DCForcing)
	}
	if c.Source.Kind == "" {
		c.Source.Kind = DefaultSourceKind
	}
	if c.Source.Duration < 0 {
		return fmt.Errorf("source.duration must not be negative, got %v", c.Source.Duration)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived = Derive(c.Physics)

	if c.Solver.ParallelThreshold < 1 {
		c.Solver.ParallelThreshold = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
	if c.Render.StepsPerFrame < 1 {
		c.Render.StepsPerFrame = 1
	}
	if c.Render.TilePixels < 1 {
		c.Render.TilePixels = 32
	}
}

// Derive computes the grid spacing, timestep and coupling scale for a medium.
func Derive(p PhysicsConfig) DerivedConfig {
	h := p.SoundSpeed / (2 * p.MaxFrequency)
	return DerivedConfig{
		VoxelSpacing: h,
		DT:           h / (p.SoundSpeed * math.Sqrt(3)),
		StencilScale: p.SoundSpeed * p.SoundSpeed * h * h / 180,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
