package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachers"
	gen "github.com/unkn0wn-root/cachers/genstore"
	clog "github.com/unkn0wn-root/cachers/log/zap"
	pr "github.com/unkn0wn-root/cachers/provider"
	"github.com/unkn0wn-root/cachers/provider/bigcache"
	"github.com/unkn0wn-root/cachers/provider/memory"
	"github.com/unkn0wn-root/cachers/provider/redis"
	"github.com/unkn0wn-root/cachers/provider/ristretto"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.Encoding = "console"
	return zc.Build()
}

// openStore builds the provider named in cfg and opens a Store over it. The
// returned cleanup closes anything the Store does not own.
func openStore(ctx context.Context, cfg *Config, zl *zap.Logger) (*cachers.Store, func(), error) {
	opts := cachers.Options{
		Namespace:  cfg.Namespace,
		DefaultTTL: cfg.TTL,
		Logger:     clog.New(zl),
	}
	cleanup := func() {}

	var (
		p   pr.Provider
		err error
	)
	switch cfg.Provider {
	case "none":
	case "memory":
		p = memory.New()
	case "ristretto":
		p, err = ristretto.New(ristretto.Config{
			NumCounters: cfg.Ristretto.MaxCost / 100,
			MaxCost:     cfg.Ristretto.MaxCost,
			BufferItems: 64,
			Wait:        true,
		})
	case "bigcache":
		p, err = bigcache.New(ctx, bigcache.Config{LifeWindow: cfg.TTL, Shards: cfg.BigCache.Shards})
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err = rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		p, err = redis.New(redis.Config{Client: rdb})
		if cfg.Redis.Gens {
			opts.GenStore = gen.NewRedis(rdb, cfg.Namespace, 0)
		}
		cleanup = func() { _ = rdb.Close() }
	}
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("provider %s: %w", cfg.Provider, err)
	}
	opts.Provider = p

	s, err := cachers.Open(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, cleanup, nil
}
