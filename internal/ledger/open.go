package ledger

import (
	"context"
	"fmt"

	"github.com/iwvelando/finance-projection/internal/config"
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Open builds the ledger selected by cfg. The returned close function
// releases any connection the ledger holds.
func Open(ctx context.Context, cfg config.LedgerConfig, logger *zap.Logger) (*Ledger, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case "", constants.LedgerBackendMemory:
		l := New(NewMemoryStore(cfg.PostingKeyTTL), NewLocalLocker(), logger)
		return l, func() error { return nil }, nil

	case constants.LedgerBackendRedis:
		addr := cfg.RedisAddress
		if addr == "" {
			addr = constants.DefaultRedisAddress
		}
		prefix := cfg.KeyPrefix
		if prefix == "" {
			prefix = constants.DefaultLedgerKeyPrefix
		}

		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
		}

		logger.Info("using redis ledger",
			zap.String("op", "ledger.Open"),
			zap.String("address", addr),
			zap.String("prefix", prefix),
			zap.Duration("posting_key_ttl", postingTTL(cfg.PostingKeyTTL)),
		)
		l := New(NewRedisStore(client, prefix, cfg.PostingKeyTTL), NewRedisLocker(client, prefix, cfg.LockTTL), logger)
		return l, client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
