package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is read from, in order of precedence: flags, CACHERS_* environment
// variables, the config file, defaults.
type Config struct {
	Namespace string        `mapstructure:"namespace"`
	Provider  string        `mapstructure:"provider"` // none | memory | ristretto | bigcache | redis
	TTL       time.Duration `mapstructure:"ttl"`
	LogLevel  string        `mapstructure:"log_level"`
	Timeout   time.Duration `mapstructure:"timeout"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		DB       int    `mapstructure:"db"`
		Password string `mapstructure:"password"`
		// Gens keeps generations in Redis too, so several processes agree.
		Gens bool `mapstructure:"gens"`
	} `mapstructure:"redis"`

	Ristretto struct {
		MaxCost int64 `mapstructure:"max_cost"`
	} `mapstructure:"ristretto"`

	BigCache struct {
		Shards int `mapstructure:"shards"`
	} `mapstructure:"bigcache"`
}

func loadConfig(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("namespace", "default")
	v.SetDefault("provider", "none")
	v.SetDefault("ttl", 10*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout", 5*time.Second)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.gens", false)
	v.SetDefault("ristretto.max_cost", 1<<26)
	v.SetDefault("bigcache.shards", 64)

	v.SetEnvPrefix("CACHERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range map[string]string{
			"namespace": "namespace",
			"provider":  "provider",
			"ttl":       "ttl",
			"log-level": "log_level",
			"timeout":   "timeout",
			"redis":     "redis.addr",
		} {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	decoderOpt := func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
		cfg.WeaklyTypedInput = true
		cfg.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	}
	cfg := new(Config)
	if err := v.Unmarshal(cfg, decoderOpt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	switch cfg.Provider {
	case "none", "memory", "ristretto", "bigcache", "redis":
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return cfg, nil
}
