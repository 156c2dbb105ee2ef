// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. BOXFLOW_LAYOUT_MAX_DEPTH.
const EnvPrefix = "BOXFLOW"

// Interface defines the contract for accessing application configuration.
// Commands depend on it so tests can hand in a fixed config.
type Interface interface {
	Logger() LoggerConfig
	Layout() LayoutConfig
	Output() OutputConfig

	// Flag overrides
	SetOutputFormat(string)
	SetOutputDigest(bool)
	SetViewport(width, height float64)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg LoggerConfig `mapstructure:"logger" yaml:"logger"`
	LayoutCfg LayoutConfig `mapstructure:"layout" yaml:"layout"`
	OutputCfg OutputConfig `mapstructure:"output" yaml:"output"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig { return c.LoggerCfg }
func (c *Config) Layout() LayoutConfig { return c.LayoutCfg }
func (c *Config) Output() OutputConfig { return c.OutputCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetOutputFormat(f string) { c.OutputCfg.Format = f }
func (c *Config) SetOutputDigest(b bool)   { c.OutputCfg.Digest = b }
func (c *Config) SetViewport(width, height float64) {
	c.LayoutCfg.ViewportWidth = width
	c.LayoutCfg.ViewportHeight = height
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// LayoutConfig tunes the engine. A viewport dimension of 0 or less means the
// host does not report it and the root is sized from its content.
type LayoutConfig struct {
	ViewportWidth       float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight      float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
	CacheEntriesPerNode int     `mapstructure:"cache_entries_per_node" yaml:"cache_entries_per_node"`
	MeasureCacheEntries int     `mapstructure:"measure_cache_entries" yaml:"measure_cache_entries"`
	// MaxDepth and MaxNodes of 0 disable the corresponding limit.
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`
}

// OutputConfig controls how the CLI reports computed geometry.
type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format"`
	Digest      bool   `mapstructure:"digest" yaml:"digest"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "boxflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Layout --
	v.SetDefault("layout.viewport_width", 800.0)
	v.SetDefault("layout.viewport_height", 600.0)
	v.SetDefault("layout.cache_entries_per_node", 8)
	v.SetDefault("layout.measure_cache_entries", 8)
	v.SetDefault("layout.max_depth", 0)
	v.SetDefault("layout.max_nodes", 0)

	// -- Output --
	v.SetDefault("output.format", "json")
	v.SetDefault("output.digest", false)
	v.SetDefault("output.concurrency", 4)
}

// BindEnv wires BOXFLOW_* environment overrides into v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if err := c.LayoutCfg.Validate(); err != nil {
		return fmt.Errorf("layout configuration invalid: %w", err)
	}
	if err := c.OutputCfg.Validate(); err != nil {
		return fmt.Errorf("output configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the layout settings.
func (l *LayoutConfig) Validate() error {
	if l.CacheEntriesPerNode <= 0 {
		return fmt.Errorf("cache_entries_per_node must be a positive integer")
	}
	if l.MeasureCacheEntries <= 0 {
		return fmt.Errorf("measure_cache_entries must be a positive integer")
	}
	if l.MaxDepth < 0 || l.MaxNodes < 0 {
		return fmt.Errorf("max_depth and max_nodes must not be negative")
	}
	return nil
}

// Validate checks the output settings.
func (o *OutputConfig) Validate() error {
	switch o.Format {
	case "json", "text":
	default:
		return fmt.Errorf("format must be json or text, got %q", o.Format)
	}
	if o.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	return nil
}
