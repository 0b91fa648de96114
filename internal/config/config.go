// The application's root configuration for the trust graph engine.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Propagation PropagationConfig `mapstructure:"propagation"`
	Anomaly     AnomalyConfig     `mapstructure:"anomaly"`
	Temporal    TemporalConfig    `mapstructure:"temporal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	Format      string `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// PostgresConfig holds settings for the database connection.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// PropagationConfig holds the default parameter set for the built-in
// propagation algorithms. Each value can be overridden per call.
type PropagationConfig struct {
	Damping       float64       `mapstructure:"damping"`
	Epsilon       float64       `mapstructure:"epsilon"`
	MaxIterations int           `mapstructure:"max_iterations"`
	MixingFactor  float64       `mapstructure:"mixing_factor"`
	HopDecay      float64       `mapstructure:"hop_decay"`
	MaxHops       int           `mapstructure:"max_hops"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// AnomalyConfig holds the detector thresholds. These defaults are placeholders
// for thresholds that should be tuned per deployment, so every one of them is
// surfaced here rather than hard-coded in the detectors.
type AnomalyConfig struct {
	CycleCap       int     `mapstructure:"cycle_cap"`
	MinIslandSize  int     `mapstructure:"min_island_size"`
	ConcentrationK float64 `mapstructure:"concentration_k"`
	CliffDelta     float64 `mapstructure:"cliff_delta"`
}

// TemporalConfig holds defaults for the temporal trust layer.
type TemporalConfig struct {
	DefaultHalfLife time.Duration `mapstructure:"default_half_life"`
	TrackHistory    bool          `mapstructure:"track_history"`
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "rotagraph",
		},
		Propagation: PropagationConfig{
			Damping:       0.85,
			Epsilon:       1e-6,
			MaxIterations: 100,
			MixingFactor:  0.15,
			HopDecay:      0.9,
			MaxHops:       6,
		},
		Anomaly: AnomalyConfig{
			CycleCap:       10,
			MinIslandSize:  2,
			ConcentrationK: 3,
			CliffDelta:     0.5,
		},
		Temporal: TemporalConfig{
			DefaultHalfLife: 30 * 24 * time.Hour,
			TrackHistory:    true,
		},
	}
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if c.Propagation.Damping <= 0 || c.Propagation.Damping >= 1 {
		return fmt.Errorf("propagation.damping must be in (0,1), got %v", c.Propagation.Damping)
	}
	if c.Propagation.Epsilon <= 0 {
		return fmt.Errorf("propagation.epsilon must be positive, got %v", c.Propagation.Epsilon)
	}
	if c.Propagation.MaxIterations <= 0 {
		return fmt.Errorf("propagation.max_iterations must be positive, got %d", c.Propagation.MaxIterations)
	}
	if c.Propagation.MixingFactor <= 0 || c.Propagation.MixingFactor >= 1 {
		return fmt.Errorf("propagation.mixing_factor must be in (0,1), got %v", c.Propagation.MixingFactor)
	}
	if c.Propagation.HopDecay <= 0 || c.Propagation.HopDecay >= 1 {
		return fmt.Errorf("propagation.hop_decay must be in (0,1), got %v", c.Propagation.HopDecay)
	}
	if c.Propagation.MaxHops <= 0 {
		return fmt.Errorf("propagation.max_hops must be positive, got %d", c.Propagation.MaxHops)
	}
	if c.Anomaly.CycleCap < 2 {
		return fmt.Errorf("anomaly.cycle_cap must be at least 2, got %d", c.Anomaly.CycleCap)
	}
	if c.Anomaly.MinIslandSize < 2 {
		return fmt.Errorf("anomaly.min_island_size must be at least 2, got %d", c.Anomaly.MinIslandSize)
	}
	if c.Anomaly.ConcentrationK <= 0 {
		return fmt.Errorf("anomaly.concentration_k must be positive, got %v", c.Anomaly.ConcentrationK)
	}
	if c.Temporal.DefaultHalfLife <= 0 {
		return fmt.Errorf("temporal.default_half_life must be positive, got %v", c.Temporal.DefaultHalfLife)
	}
	return nil
}

// Load unmarshals the configuration from Viper on top of the defaults and
// stores it as the process singleton.
func Load(v *viper.Viper) error {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	Set(&cfg)
	return nil
}

// Set stores the configuration instance.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get returns the loaded configuration instance.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
