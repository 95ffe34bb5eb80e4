package cli

import (
	"fmt"
	"time"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/pkg/checkpoint"
	"github.com/aretw0/stategraph/pkg/checkpoint/memory"
	"github.com/aretw0/stategraph/pkg/checkpoint/redisstore"
	backend "github.com/redis/go-redis/v9"
)

// BuildStore constructs the checkpoint store named by cfg.Driver.
func BuildStore(cfg config.CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), nil
	case "redis":
		opts := []redisstore.Option{}
		if cfg.Prefix != "" {
			opts = append(opts, redisstore.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL != "" {
			d, err := time.ParseDuration(cfg.TTL)
			if err != nil {
				return nil, fmt.Errorf("cli: invalid checkpoint.ttl %q: %w", cfg.TTL, err)
			}
			opts = append(opts, redisstore.WithTTL(d))
		}
		return redisstore.New(cfg.RedisURL, "", 0, opts...), nil
	default:
		return nil, fmt.Errorf("cli: unknown checkpoint driver %q", cfg.Driver)
	}
}

// BuildLocker constructs the distributed locker for cfg, or returns a nil
// locker and no error when locking is disabled or the driver has no
// locking implementation. The HTTP server treats a nil locker as "don't
// serialize concurrent thread resumes".
func BuildLocker(cfg config.CheckpointConfig) (*redisstore.Locker, time.Duration, error) {
	if !cfg.Locking || cfg.Driver != "redis" {
		return nil, 0, nil
	}
	ttl := 10 * time.Second
	if cfg.LockTTL != "" {
		d, err := time.ParseDuration(cfg.LockTTL)
		if err != nil {
			return nil, 0, fmt.Errorf("cli: invalid checkpoint.lock_ttl %q: %w", cfg.LockTTL, err)
		}
		ttl = d
	}
	client := backend.NewClient(&backend.Options{Addr: cfg.RedisURL})
	return redisstore.NewLocker(client, cfg.Prefix), ttl, nil
}
