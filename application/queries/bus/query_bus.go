package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "priorify/pkg/errors"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

// Cacheable queries name the cache entry their result is stored under
type Cacheable interface {
	CacheKey() string
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// Middleware decorates a query handler
type Middleware func(next QueryHandler) QueryHandler

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewQueryBus creates a new query bus. Middlewares wrap every registered
// handler, the first one outermost.
func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Register registers a handler for a query type
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("no handler registered for query type %T", query))
	}

	return handler.Handle(ctx, query)
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Typed adapts a handler of a concrete query type
func Typed[Q Query, R any](handle func(ctx context.Context, query Q) (R, error)) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		q, ok := query.(Q)
		if !ok {
			return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected query type %T", query))
		}
		return handle(ctx, q)
	})
}

// Cache is the subset of the cache port used by the caching middleware
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
}

// CachingMiddleware caches the results of Cacheable queries. A zero TTL
// disables caching.
func CachingMiddleware(cache Cache, ttl time.Duration, logger *zap.Logger) Middleware {
	return func(next QueryHandler) QueryHandler {
		if cache == nil || ttl <= 0 {
			return next
		}
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			cacheable, ok := query.(Cacheable)
			if !ok {
				return next.Handle(ctx, query)
			}
			key := cacheable.CacheKey()

			if cached, found := cache.Get(ctx, key); found {
				return cached, nil
			}

			result, err := next.Handle(ctx, query)
			if err != nil {
				return nil, err
			}

			if err := cache.Set(ctx, key, result, int(ttl.Seconds())); err != nil {
				logger.Warn("Failed to cache query result", zap.String("key", key), zap.Error(err))
			}
			return result, nil
		})
	}
}

// Metrics records query executions
type Metrics interface {
	ObserveQuery(queryType string, duration time.Duration, err error)
}

// MetricsMiddleware times every query
func MetricsMiddleware(metrics Metrics) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			start := time.Now()
			result, err := next.Handle(ctx, query)
			metrics.ObserveQuery(reflect.TypeOf(query).Name(), time.Since(start), err)
			return result, err
		})
	}
}

// Tracer opens a trace segment around fn
type Tracer interface {
	Trace(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// TracingMiddleware runs every query inside a segment named after its type
func TracingMiddleware(tracer Tracer) Middleware {
	return func(next QueryHandler) QueryHandler {
		if tracer == nil {
			return next
		}
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			var result interface{}
			err := tracer.Trace(ctx, reflect.TypeOf(query).Name(), func(ctx context.Context) error {
				var err error
				result, err = next.Handle(ctx, query)
				return err
			})
			return result, err
		})
	}
}

// LoggingMiddleware logs failed queries
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			result, err := next.Handle(ctx, query)
			if err != nil {
				logger.Debug("Query failed",
					zap.String("type", reflect.TypeOf(query).Name()),
					zap.Error(err),
				)
			}
			return result, err
		})
	}
}
