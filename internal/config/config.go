// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Rules    RulesConfig    `yaml:"rules" mapstructure:"rules"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig holds geocoding provider settings.
type GeocodeConfig struct {
	APIKey  string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
}

// CacheConfig configures the geocode result cache backend.
type CacheConfig struct {
	// Driver is "sqlite", "postgres", or "none".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CalendarConfig holds base holiday calendar API settings.
type CalendarConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// BoundaryConfig holds the LGA boundary artifact settings.
type BoundaryConfig struct {
	ArtifactPath string  `yaml:"artifact_path" mapstructure:"artifact_path"`
	Tolerance    float64 `yaml:"tolerance" mapstructure:"tolerance"`
}

// RulesConfig holds the curated regional rule file settings.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HOLIDAYCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("geocode.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.rps", 10.0)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "geocode-cache.db")
	v.SetDefault("calendar.base_url", "https://date.nager.at")
	v.SetDefault("boundary.artifact_path", "lga-boundaries.geojson")
	v.SetDefault("boundary.tolerance", 0.0015)
	v.SetDefault("rules.path", "regional-rules.csv")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
