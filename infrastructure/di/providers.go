package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	commandbus "priorify/application/commands/bus"
	commandhandlers "priorify/application/commands/handlers"
	"priorify/application/ports"
	querybus "priorify/application/queries/bus"
	queryhandlers "priorify/application/queries/handlers"
	"priorify/application/services"
	domainconfig "priorify/domain/config"
	"priorify/domain/core/scoring"
	"priorify/domain/core/validators"
	"priorify/infrastructure/config"
	"priorify/infrastructure/mail"
	"priorify/infrastructure/mail/sendgrid"
	"priorify/infrastructure/messaging/eventbridge"
	infraobs "priorify/infrastructure/observability"
	"priorify/infrastructure/persistence/dynamodb"
	"priorify/infrastructure/scheduler"
	"priorify/infrastructure/vectorindex/qdrant"
	"priorify/interfaces/http/rest"
	"priorify/interfaces/http/rest/handlers"
	"priorify/interfaces/http/rest/middleware"
	"priorify/pkg/auth"
	pkgerrors "priorify/pkg/errors"
	"priorify/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "priorify"), zap.String("environment", cfg.Environment)), nil
}

// ProvideDomainConfig loads the business rules for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domain := domainconfig.LoadDomainConfig(cfg.Environment)
	domain.TimeZone = cfg.DigestTimeZone
	if err := domain.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain configuration: %w", err)
	}
	return domain, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideUserRepository creates the user repository
func ProvideUserRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.UserRepository {
	return dynamodb.NewUserRepository(client, cfg.UsersTable, cfg.UserListIndex, logger)
}

// ProvideScheduleRepository creates the schedule repository
func ProvideScheduleRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ScheduleRepository {
	return dynamodb.NewScheduleRepository(client, cfg.SchedulesTable, cfg.OwnerStartIndex, logger)
}

// ProvideDistributedLock creates the lock that keeps digest runs exclusive
// across instances. Each process owns its locks under a fresh id.
func ProvideDistributedLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.Locker {
	return dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, uuid.NewString(), logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *infraobs.Collector {
	return infraobs.NewCollector("priorify")
}

// ProvideDigestMetrics sends digest outcomes to Prometheus and, when
// enabled, to CloudWatch.
func ProvideDigestMetrics(collector *infraobs.Collector, client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.DigestMetrics {
	sinks := infraobs.DigestMetricsFanout{collector}
	if cfg.EnableMetrics {
		namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
		sinks = append(sinks, infraobs.NewCloudWatchMetrics(namespace, client, logger))
	}
	return sinks
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("priorify", cfg.EnableTracing)
}

// ProvideSimilarityIndex creates the qdrant client
func ProvideSimilarityIndex(cfg *config.Config, collector *infraobs.Collector, logger *zap.Logger) (*qdrant.Index, error) {
	return qdrant.NewIndex(qdrant.Config{
		URL:        cfg.QdrantURL,
		Collection: cfg.QdrantCollection,
		VectorDim:  cfg.QdrantVectorDim,
		APIKey:     cfg.QdrantAPIKey,
		Timeout:    10 * time.Second,
	}, collector, logger)
}

// ProvideMailDispatcher sends through SendGrid when an API key is set and
// only logs digests otherwise.
func ProvideMailDispatcher(cfg *config.Config, domain *domainconfig.DomainConfig, logger *zap.Logger) (ports.MailDispatcher, error) {
	if !cfg.MailEnabled() {
		logger.Warn("SENDGRID_API_KEY not set, digests will only be logged")
		return mail.NewLogDispatcher(logger), nil
	}
	client, err := sendgrid.NewClient(sendgrid.Config{
		APIKey:     cfg.SendGridAPIKey,
		FromEmail:  cfg.SendGridFromEmail,
		FromName:   cfg.SendGridFromName,
		Timeout:    cfg.SendGridTimeout(),
		MaxRetries: cfg.SendGridMaxRetries,
	}, logger)
	if err != nil {
		return nil, err
	}
	dispatcher, err := sendgrid.NewDispatcher(client, domain.Location(), cfg.AppBaseURL, logger)
	if err != nil {
		return nil, err
	}
	return dispatcher, nil
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideInMemoryCache creates the query result cache
func ProvideInMemoryCache() *InMemoryCache {
	return NewInMemoryCache(time.Minute)
}

// ProvideScoringEngine creates the scoring engine
func ProvideScoringEngine(domain *domainconfig.DomainConfig) *scoring.Engine {
	return scoring.NewEngine(domain.Scoring)
}

// ProvideSimilarityLinker creates the similarity linker
func ProvideSimilarityLinker(index *qdrant.Index, domain *domainconfig.DomainConfig, logger *zap.Logger) *services.SimilarityLinker {
	return services.NewSimilarityLinker(index, domain.Similarity, logger)
}

// ProvideGraphBuilder creates the graph builder
func ProvideGraphBuilder(engine *scoring.Engine, linker *services.SimilarityLinker, domain *domainconfig.DomainConfig, logger *zap.Logger) *services.GraphBuilder {
	return services.NewGraphBuilder(engine, linker, domain, logger)
}

// ProvideRanker creates the digest ranker
func ProvideRanker(engine *scoring.Engine, domain *domainconfig.DomainConfig) *services.Ranker {
	return services.NewRanker(engine, domain)
}

// ProvideStatisticsService creates the statistics service
func ProvideStatisticsService(schedules ports.ScheduleRepository, engine *scoring.Engine, domain *domainconfig.DomainConfig, logger *zap.Logger) *services.StatisticsService {
	return services.NewStatisticsService(schedules, engine, domain, logger)
}

// ProvideDigestScheduler creates the batch digest scheduler
func ProvideDigestScheduler(
	users ports.UserRepository,
	schedules ports.ScheduleRepository,
	ranker *services.Ranker,
	mailer ports.MailDispatcher,
	locker ports.Locker,
	metrics ports.DigestMetrics,
	publisher ports.EventPublisher,
	tracer *observability.Tracer,
	domain *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.DigestScheduler {
	return services.NewDigestScheduler(services.DigestSchedulerDeps{
		Users:     users,
		Schedules: schedules,
		Ranker:    ranker,
		Mailer:    mailer,
		Locker:    locker,
		Metrics:   metrics,
		Publisher: publisher,
		Tracer:    tracer,
		Clock:     ports.SystemClock{},
		Logger:    logger,
	}, domain)
}

// ProvideCronScheduler creates the in-process job scheduler with both
// digest jobs registered. It is started only when ENABLE_SCHEDULER is set.
func ProvideCronScheduler(cfg *config.Config, domain *domainconfig.DomainConfig, digests *services.DigestScheduler, logger *zap.Logger) (*scheduler.CronScheduler, error) {
	cron := scheduler.NewCronScheduler(domain.Location(), 2*time.Hour, logger)
	if err := digests.RegisterJobs(cron, cfg.ReminderCron, cfg.TopPriorityCron); err != nil {
		return nil, err
	}
	return cron, nil
}

// ProvideQueryHandlers creates every query handler
func ProvideQueryHandlers(
	users ports.UserRepository,
	schedules ports.ScheduleRepository,
	engine *scoring.Engine,
	builder *services.GraphBuilder,
	linker *services.SimilarityLinker,
	statistics *services.StatisticsService,
	digests *services.DigestScheduler,
	domain *domainconfig.DomainConfig,
	logger *zap.Logger,
) *queryhandlers.Set {
	clock := ports.SystemClock{}
	return &queryhandlers.Set{
		Graph:       queryhandlers.NewGetScheduleGraphHandler(users, schedules, builder, clock, domain, logger),
		List:        queryhandlers.NewListSchedulesHandler(users, schedules, engine, clock, domain),
		TopPriority: queryhandlers.NewGetTopPriorityHandler(users, digests, domain),
		Similar:     queryhandlers.NewGetSimilarSchedulesHandler(schedules, linker, logger),
		Priorities:  queryhandlers.NewGetPrioritiesHandler(users),
		Statistics:  queryhandlers.NewGetStatisticsHandler(users, statistics, clock),
		BatchStats:  queryhandlers.NewGetBatchStatisticsHandler(digests),
	}
}

// ProvideCommandHandlers creates every command handler
func ProvideCommandHandlers(
	users ports.UserRepository,
	publisher ports.EventPublisher,
	cache *InMemoryCache,
	digests *services.DigestScheduler,
	domain *domainconfig.DomainConfig,
	logger *zap.Logger,
) *commandhandlers.Set {
	return &commandhandlers.Set{
		SetPriorities: commandhandlers.NewSetPrioritiesHandler(users, validators.NewPreferenceValidator(domain), publisher, cache, logger),
		RunDigest:     commandhandlers.NewRunDigestHandler(digests, logger),
	}
}

// ProvideQueryBus creates the query bus with its middleware chain and every
// handler registered.
func ProvideQueryBus(set *queryhandlers.Set, cache *InMemoryCache, collector *infraobs.Collector, tracer *observability.Tracer, cfg *config.Config, logger *zap.Logger) (*querybus.QueryBus, error) {
	b := querybus.NewQueryBus(
		querybus.TracingMiddleware(tracer),
		querybus.LoggingMiddleware(logger),
		querybus.MetricsMiddleware(collector),
		querybus.CachingMiddleware(cache, time.Duration(cfg.QueryCacheTTLSeconds)*time.Second, logger),
	)
	if err := set.Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideCommandBus creates the command bus with every handler registered
func ProvideCommandBus(set *commandhandlers.Set, logger *zap.Logger) (*commandbus.CommandBus, error) {
	b := commandbus.NewCommandBus(commandbus.LoggingMiddleware(logger))
	if err := set.Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideErrorHandler creates the HTTP error renderer
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAuthOptions builds the authentication settings. Behind API Gateway
// the authorizer headers are trusted; a JWT validator is added whenever a
// key is configured.
func ProvideAuthOptions(cfg *config.Config) (middleware.AuthOptions, error) {
	opts := middleware.AuthOptions{
		IPLimiter:    auth.NewIPRateLimiter(cfg.IPRateLimit),
		UserLimiter:  auth.NewUserRateLimiter(cfg.UserRateLimit),
		TrustGateway: cfg.IsLambda,
	}
	if cfg.JWTSecret == "" && cfg.JWTPublicKey == "" {
		return opts, nil
	}
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: cfg.JWTSigningMethod,
		PublicKey:     cfg.JWTPublicKey,
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      cfg.JWTAudience,
		Leeway:        30 * time.Second,
	})
	if err != nil {
		return opts, err
	}
	opts.Validator = validator
	return opts, nil
}

// ProvideRouter builds the HTTP handler
func ProvideRouter(
	cfg *config.Config,
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	authOpts middleware.AuthOptions,
	collector *infraobs.Collector,
	tracer *observability.Tracer,
	users ports.UserRepository,
	index *qdrant.Index,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(rest.RouterConfig{
		CommandBus: commandBus,
		QueryBus:   queryBus,
		Errors:     errs,
		Auth:       authOpts,
		Metrics:    collector,
		Tracer:     tracer,
		Readiness: map[string]handlers.ReadinessCheck{
			"dynamodb": func(ctx context.Context) error {
				_, err := users.Count(ctx)
				return err
			},
			"qdrant": index.Ready,
		},
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		DigestAdminRole: cfg.DigestAdminRole,
		Logger:          logger,
	}).Setup()
}
