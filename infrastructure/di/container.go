package di

import (
	"context"
	"net/http"

	commandbus "priorify/application/commands/bus"
	commandhandlers "priorify/application/commands/handlers"
	querybus "priorify/application/queries/bus"
	"priorify/application/services"
	domainconfig "priorify/domain/config"
	"priorify/infrastructure/config"
	"priorify/infrastructure/scheduler"

	"go.uber.org/zap"
)

// Container holds the wired application
type Container struct {
	Config          *config.Config
	DomainConfig    *domainconfig.DomainConfig
	Logger          *zap.Logger
	QueryBus        *querybus.QueryBus
	CommandBus      *commandbus.CommandBus
	CommandHandlers *commandhandlers.Set
	Digests         *services.DigestScheduler
	Scheduler       *scheduler.CronScheduler
	Cache           *InMemoryCache
	Router          http.Handler
}

// Shutdown stops the scheduler, cancels and waits for manual digest runs and
// flushes the logger.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.Scheduler != nil {
		if err := c.Scheduler.Stop(ctx); err != nil {
			c.Logger.Error("Scheduler shutdown error", zap.Error(err))
			firstErr = err
		}
	}

	if c.CommandHandlers != nil && c.CommandHandlers.RunDigest != nil {
		c.CommandHandlers.RunDigest.Cancel()
		done := make(chan struct{})
		go func() {
			c.CommandHandlers.RunDigest.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			c.Logger.Warn("Manual digest runs still in flight at shutdown")
			if firstErr == nil {
				firstErr = ctx.Err()
			}
		}
	}

	if c.Cache != nil {
		c.Cache.Stop()
	}
	_ = c.Logger.Sync()
	return firstErr
}
