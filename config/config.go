/*
Package config loads run settings for the cache binaries.

Settings come from, in increasing priority: built-in defaults, an optional
config file (any format viper reads: YAML, TOML, JSON), and RCACHE_*
environment variables. Nested keys map to env names with "_", so
log.level is RCACHE_LOG_LEVEL.
*/
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	cache "github.com/krisalay/recency-cache"
	"github.com/krisalay/recency-cache/workload"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "RCACHE"

type Config struct {
	// Capacity is the maximum number of cached records.
	Capacity int `mapstructure:"capacity"`

	// Data is the path of the backing data file.
	Data string `mapstructure:"data"`

	// Workload is the path of the request file. Empty means a synthetic
	// Zipf workload.
	Workload string `mapstructure:"workload"`

	// Indexed loads the data file into memory instead of scanning it on
	// every miss.
	Indexed bool `mapstructure:"indexed"`

	// Rebuild makes every hit rebuild the recency index from scratch.
	Rebuild bool `mapstructure:"rebuild"`

	Zipf    ZipfConfig    `mapstructure:"zipf"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ZipfConfig struct {
	Requests int `mapstructure:"requests"`

	// Universe caps how many data file keys, taken in key order, the
	// synthetic workload draws from.
	Universe int     `mapstructure:"universe"`
	Skew     float64 `mapstructure:"skew"`
	Seed     int64   `mapstructure:"seed"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	// Addr is where /metrics is served. Empty disables the endpoint.
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capacity", 500)
	v.SetDefault("data", "datasets/data.dat")
	v.SetDefault("workload", "")
	v.SetDefault("indexed", false)
	v.SetDefault("rebuild", false)
	v.SetDefault("zipf.requests", 500000)
	v.SetDefault("zipf.universe", 50000)
	v.SetDefault("zipf.skew", workload.DefaultSkew)
	v.SetDefault("zipf.seed", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", "rcache")
}

// Load reads the configuration. path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	if c.Capacity < 1 {
		return errors.Wrapf(cache.ErrInvalidCapacity, "capacity %d", c.Capacity)
	}
	if c.Data == "" {
		return errors.New("data file path is required")
	}
	if c.Workload == "" {
		if c.Zipf.Requests < 0 || c.Zipf.Universe < 1 {
			return errors.Newf("zipf workload needs requests >= 0 and universe >= 1, got %d and %d",
				c.Zipf.Requests, c.Zipf.Universe)
		}
		if c.Zipf.Skew <= 1 {
			return errors.Newf("zipf skew must be > 1, got %v", c.Zipf.Skew)
		}
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log level %q", c.Log.Level)
	}
	return nil
}

// Logger builds the logger for the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", c.Log.Level)
	}

	zc := zap.NewProductionConfig()
	if level.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return l, nil
}
