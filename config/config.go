/*
Package config loads runtime configuration for the compensation engine.

PURPOSE:
  File plus environment configuration via viper, a zap logger factory,
  and translation of configured policy values into the calculation
  globals the engine packages consume. The engine itself never reads
  configuration; everything flows through here at startup.
*/
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/warp/comp-engine/engine"
)

// Config is the full runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Policy  PolicyConfig  `mapstructure:"policy"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig selects and configures the run archive backend.
type StoreConfig struct {
	// Driver is one of "memory", "sqlite", or "postgres".
	Driver string `mapstructure:"driver"`
	// DSN is the sqlite file path or postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// PolicyConfig holds the organization-level calculation policy. Zero
// values fall back to engine defaults.
type PolicyConfig struct {
	TCCGrowthFactor      float64 `mapstructure:"tcc_growth_factor"`
	WRVUGrowthFactor     float64 `mapstructure:"wrvu_growth_factor"`
	UnderpayGapThreshold float64 `mapstructure:"underpay_gap_threshold"`
	OverpayGapThreshold  float64 `mapstructure:"overpay_gap_threshold"`
	PolicyBandLow        float64 `mapstructure:"policy_band_low"`
	PolicyBandHigh       float64 `mapstructure:"policy_band_high"`
	LowFTEThreshold      float64 `mapstructure:"low_fte_threshold"`
	LowWRVUThreshold     float64 `mapstructure:"low_wrvu_threshold"`
}

// Load reads configuration from the given file (optional) and the
// COMPENGINE_ environment, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetEnvPrefix("COMPENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "reading config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "unmarshaling config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return eris.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return eris.Errorf("store driver %q requires a dsn", c.Store.Driver)
	}
	return nil
}

// Globals materializes the policy section as calculation globals.
// Unset fields take the engine defaults.
func (c *Config) Globals() engine.Globals {
	return engine.Globals{
		TCCGrowthFactor:      c.Policy.TCCGrowthFactor,
		WRVUGrowthFactor:     c.Policy.WRVUGrowthFactor,
		UnderpayGapThreshold: c.Policy.UnderpayGapThreshold,
		OverpayGapThreshold:  c.Policy.OverpayGapThreshold,
		PolicyBandLow:        c.Policy.PolicyBandLow,
		PolicyBandHigh:       c.Policy.PolicyBandHigh,
		LowFTEThreshold:      c.Policy.LowFTEThreshold,
		LowWRVUThreshold:     c.Policy.LowWRVUThreshold,
	}
}

// InitLogger builds a zap logger per the logging section.
func (c *Config) InitLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Logging.Level)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing log level %q", c.Logging.Level)
	}

	var zc zap.Config
	if c.Logging.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, eris.Wrap(err, "building logger")
	}
	return logger, nil
}
