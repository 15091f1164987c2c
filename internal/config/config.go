// Package config loads settings for the spne binaries from a config file
// and SPNE_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Store back ends.
const (
	MemoryStore  = "memory"
	LevelDBStore = "leveldb"
	RocksDBStore = "rocksdb"
)

type Config struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`

	// Solver limits for trees received over the network.
	MaxNodes int `mapstructure:"max_nodes"`
	MaxDepth int `mapstructure:"max_depth"`

	Store     string `mapstructure:"store"`
	StorePath string `mapstructure:"store_path"`

	// Solution cache; disabled if RedisAddr is empty.
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":3000")
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("max_nodes", 100000)
	v.SetDefault("max_depth", 10000)
	v.SetDefault("store", MemoryStore)
	v.SetDefault("store_path", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", time.Hour)
}

// Load reads the config file at path, if any, and applies SPNE_*
// environment overrides (e.g. SPNE_LISTEN_ADDR) on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("spne")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case MemoryStore:
	case LevelDBStore, RocksDBStore:
		if c.StorePath == "" {
			return errors.Errorf("store %q requires store_path", c.Store)
		}
	default:
		return errors.Errorf("unknown store %q", c.Store)
	}

	if c.MaxNodes < 0 || c.MaxDepth < 0 {
		return errors.Errorf("solver limits must not be negative: max_nodes=%d max_depth=%d",
			c.MaxNodes, c.MaxDepth)
	}

	return nil
}
