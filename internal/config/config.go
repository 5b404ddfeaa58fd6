// Package config loads application configuration from a yaml file, GEOCORE_
// environment variables, and defaults, and installs the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Matrix      MatrixConfig      `yaml:"matrix" mapstructure:"matrix"`
	Index       IndexConfig       `yaml:"index" mapstructure:"index"`
	Isochrone   IsochroneConfig   `yaml:"isochrone" mapstructure:"isochrone"`
	Access      AccessConfig      `yaml:"access" mapstructure:"access"`
	Suitability SuitabilityConfig `yaml:"suitability" mapstructure:"suitability"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the PostGIS backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MatrixConfig configures the live travel-time matrix provider. An empty
// BaseURL means no live provider: the engine runs on the geometric fallback
// and marks every result approximate.
type MatrixConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	QPS         float64 `yaml:"qps" mapstructure:"qps"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// IndexConfig configures the spatial index.
type IndexConfig struct {
	CellSizeDegrees float64 `yaml:"cell_size_degrees" mapstructure:"cell_size_degrees"`
}

// IsochroneConfig configures the isochrone builder.
type IsochroneConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// AccessConfig configures the accessibility scorer.
type AccessConfig struct {
	Workers        int     `yaml:"workers" mapstructure:"workers"`
	CeilingMinutes float64 `yaml:"ceiling_minutes" mapstructure:"ceiling_minutes"`
}

// SuitabilityConfig configures site suitability scoring defaults.
type SuitabilityConfig struct {
	DemographicWeight      float64 `yaml:"demographic_weight" mapstructure:"demographic_weight"`
	ScarcityWeight         float64 `yaml:"scarcity_weight" mapstructure:"scarcity_weight"`
	ProximityWeight        float64 `yaml:"proximity_weight" mapstructure:"proximity_weight"`
	CompetitorRadiusMeters float64 `yaml:"competitor_radius_meters" mapstructure:"competitor_radius_meters"`
	BusinessRadiusMeters   float64 `yaml:"business_radius_meters" mapstructure:"business_radius_meters"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional), GEOCORE_ environment
// variables, and built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("matrix.timeout_secs", 10)
	v.SetDefault("matrix.qps", 10)
	v.SetDefault("matrix.max_attempts", 3)
	v.SetDefault("index.cell_size_degrees", 0.01)
	v.SetDefault("isochrone.workers", 4)
	v.SetDefault("access.workers", 4)
	v.SetDefault("access.ceiling_minutes", 15)
	v.SetDefault("suitability.demographic_weight", 0.4)
	v.SetDefault("suitability.scarcity_weight", 0.3)
	v.SetDefault("suitability.proximity_weight", 0.3)
	v.SetDefault("suitability.competitor_radius_meters", 500)
	v.SetDefault("suitability.business_radius_meters", 1000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
