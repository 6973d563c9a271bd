package main

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/marketplace-orders/internal/config"
	domnotify "github.com/Zhima-Mochi/marketplace-orders/internal/domain/notification"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/store"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/notifier"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/marketplace-orders/internal/infrastructure/redislock"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

type namedCloser struct {
	name  string
	close func() error
}

// closerStack releases resources in reverse order of acquisition.
type closerStack []namedCloser

func (s *closerStack) push(name string, fn func() error) {
	*s = append(*s, namedCloser{name: name, close: fn})
}

func (s closerStack) closeAll(logger observability.Logger) {
	for i := len(s) - 1; i >= 0; i-- {
		if err := s[i].close(); err != nil {
			logger.Warn("resource_close_failed",
				observability.F("resource", s[i].name),
				observability.F("error", err),
			)
		}
	}
}

func openStore(ctx context.Context, cfg config.Config, closers *closerStack) (store.Store, error) {
	if cfg.Store != config.StorePostgres {
		return memory.NewStore(), nil
	}
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMax)
	if err != nil {
		return nil, err
	}
	closers.push("postgres", func() error { pool.Close(); return nil })
	if err := postgres.Migrate(ctx, pool); err != nil {
		return nil, err
	}
	return postgres.NewStore(pool), nil
}

func openLocker(ctx context.Context, cfg config.Config, logger observability.Logger, closers *closerStack) (store.Locker, error) {
	if cfg.Locker != config.LockerRedis {
		return memory.NewLocker(), nil
	}
	rdb := redislock.NewClient(cfg.RedisAddr)
	closers.push("redis", rdb.Close)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return redislock.New(rdb,
		redislock.WithTTL(cfg.LockTTL),
		redislock.WithLogger(logger),
	), nil
}

func openGateway(cfg config.Config) (dompayment.Gateway, error) {
	if cfg.Gateway != config.GatewayRazorpay {
		return gateway.NewSandbox(cfg.GatewaySecret), nil
	}
	rp, err := gateway.NewRazorpay(cfg.GatewayKeyID, cfg.GatewaySecret,
		gateway.WithBaseURL(cfg.GatewayBaseURL),
		gateway.WithTimeout(cfg.GatewayTimeout),
	)
	if err != nil {
		return nil, err
	}
	return rp, nil
}

func openNotifier(cfg config.Config, logger observability.Logger, closers *closerStack) domnotify.Notifier {
	switch cfg.Notifier {
	case config.NotifierHTTP:
		return notifier.NewHTTP(cfg.NotifierURL, nil)
	case config.NotifierKafka:
		k := notifier.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName)
		closers.push("kafka", k.Close)
		return k
	default:
		return notifier.NewLog(logger)
	}
}
