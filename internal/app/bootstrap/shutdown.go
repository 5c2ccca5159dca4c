// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, drains queued notifications, then closes
// the brokers and the store. Errors are joined so every close is attempted.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.Runtime; rt != nil {
		if rt.Workers != nil {
			rt.Workers.Stop()
		}
		if rt.Dispatcher != nil {
			rt.Dispatcher.Stop()
		}
		if rt.Limiter != nil {
			rt.Limiter.Stop()
		}
	}
	return closeDeps(ctx, deps, logger)
}

func closeDeps(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	var errs []error
	if deps.NATS != nil {
		logger.Info("draining NATS connection")
		if err := deps.NATS.Drain(); err != nil {
			logger.Error("NATS drain failed", zap.Error(err))
			deps.NATS.Close()
		}
	}
	if deps.Redis != nil {
		logger.Info("closing Redis client")
		if err := deps.Redis.Close(); err != nil {
			logger.Error("Redis close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.Store != nil {
		logger.Info("closing store", zap.String("driver", deps.Driver))
		if err := deps.Store.Close(ctx); err != nil {
			logger.Error("store close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
