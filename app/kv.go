package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-bizcard-client/internal/config"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/session"
	"github.com/jrsteele09/go-bizcard-client/session/filekv"
	"github.com/jrsteele09/go-bizcard-client/session/memkv"
	"github.com/jrsteele09/go-bizcard-client/session/rediskv"
	"github.com/jrsteele09/go-bizcard-client/session/sqlitekv"
)

const redisDialTimeout = 3 * time.Second

// OpenKV opens the session persistence backend named by the storage config. The returned
// close function releases it and is never nil.
func OpenKV(cfg config.StorageConfig) (session.KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetStoreType() {
	case config.StoreMemory:
		return memkv.New(), noop, nil

	case config.StoreFile, "":
		var opts []filekv.Option
		if key := cfg.GetStoreKey(); key != "" {
			opts = append(opts, filekv.WithPassphrase(key))
		}
		kv, err := filekv.New(cfg.GetStorePath(), opts...)
		if err != nil {
			return nil, nil, err
		}
		return kv, noop, nil

	case config.StoreSQLite:
		kv, err := sqlitekv.Open(cfg.GetStorePath())
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil

	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
		defer cancel()
		kv, client, err := rediskv.Dial(ctx, cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB(), cfg.GetRedisPrefix())
		if err != nil {
			return nil, nil, err
		}
		return kv, client.Close, nil
	}

	return nil, nil, fmt.Errorf("OpenKV: store %q: %w", cfg.GetStoreType(), errors.ErrUnsupported)
}
