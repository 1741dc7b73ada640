//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"priorify/infrastructure/config"

	"github.com/google/wire"
)

// InfrastructureSet provides clients, repositories and adapters
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideUserRepository,
	ProvideScheduleRepository,
	ProvideDistributedLock,
	ProvideCollector,
	ProvideDigestMetrics,
	ProvideTracer,
	ProvideSimilarityIndex,
	ProvideMailDispatcher,
	ProvideEventPublisher,
	ProvideInMemoryCache,
)

// ApplicationSet provides services, handlers and buses
var ApplicationSet = wire.NewSet(
	ProvideScoringEngine,
	ProvideSimilarityLinker,
	ProvideGraphBuilder,
	ProvideRanker,
	ProvideStatisticsService,
	ProvideDigestScheduler,
	ProvideCronScheduler,
	ProvideQueryHandlers,
	ProvideCommandHandlers,
	ProvideQueryBus,
	ProvideCommandBus,
)

// InterfaceSet provides the HTTP surface
var InterfaceSet = wire.NewSet(
	ProvideErrorHandler,
	ProvideAuthOptions,
	ProvideRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	InterfaceSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
