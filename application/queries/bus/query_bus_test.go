package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "priorify/pkg/errors"
)

type echoQuery struct {
	Value string
}

func (q echoQuery) Validate() error {
	if q.Value == "" {
		return pkgerrors.NewValidationError("value is required")
	}
	return nil
}

func (q echoQuery) CacheKey() string { return "echo:" + q.Value }

type plainQuery struct{}

func (plainQuery) Validate() error { return nil }

type mapCache struct {
	entries map[string]interface{}
	ttls    map[string]int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]interface{}{}, ttls: map[string]int{}}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, ttl int) error {
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

type recordingMetrics struct {
	observed []string
	failures int
}

func (m *recordingMetrics) ObserveQuery(queryType string, _ time.Duration, err error) {
	m.observed = append(m.observed, queryType)
	if err != nil {
		m.failures++
	}
}

func TestQueryBus_AskDispatchesByType(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(echoQuery{}, Typed(func(_ context.Context, q echoQuery) (string, error) {
		return "echo " + q.Value, nil
	})))

	result, err := b.Ask(context.Background(), echoQuery{Value: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo hi", result)

	_, err = b.Ask(context.Background(), echoQuery{})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = b.Ask(context.Background(), plainQuery{})
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeInternal))

	assert.Error(t, b.Register(echoQuery{}, Typed(func(context.Context, echoQuery) (string, error) { return "", nil })))
}

func TestCachingMiddleware(t *testing.T) {
	cache := newMapCache()
	calls := 0
	b := NewQueryBus(CachingMiddleware(cache, time.Minute, zap.NewNop()))
	require.NoError(t, b.Register(echoQuery{}, Typed(func(_ context.Context, q echoQuery) (string, error) {
		calls++
		return q.Value, nil
	})))
	require.NoError(t, b.Register(plainQuery{}, Typed(func(context.Context, plainQuery) (int, error) {
		calls++
		return 1, nil
	})))

	for i := 0; i < 3; i++ {
		_, err := b.Ask(context.Background(), echoQuery{Value: "x"})
		require.NoError(t, err)
		_, err = b.Ask(context.Background(), plainQuery{})
		require.NoError(t, err)
	}

	// echo computed once, plain every time
	assert.Equal(t, 4, calls)
	assert.Equal(t, 60, cache.ttls["echo:x"])
}

func TestCachingMiddleware_DisabledWithoutTTL(t *testing.T) {
	cache := newMapCache()
	b := NewQueryBus(CachingMiddleware(cache, 0, zap.NewNop()))
	require.NoError(t, b.Register(echoQuery{}, Typed(func(_ context.Context, q echoQuery) (string, error) {
		return q.Value, nil
	})))

	_, err := b.Ask(context.Background(), echoQuery{Value: "x"})
	require.NoError(t, err)
	assert.Empty(t, cache.entries)
}

func TestCachingMiddleware_ErrorsAreNotCached(t *testing.T) {
	cache := newMapCache()
	b := NewQueryBus(CachingMiddleware(cache, time.Minute, zap.NewNop()))
	require.NoError(t, b.Register(echoQuery{}, Typed(func(context.Context, echoQuery) (string, error) {
		return "", errors.New("boom")
	})))

	_, err := b.Ask(context.Background(), echoQuery{Value: "x"})
	assert.Error(t, err)
	assert.Empty(t, cache.entries)
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := &recordingMetrics{}
	b := NewQueryBus(MetricsMiddleware(metrics))
	require.NoError(t, b.Register(echoQuery{}, Typed(func(_ context.Context, q echoQuery) (string, error) {
		if q.Value == "bad" {
			return "", errors.New("bad")
		}
		return q.Value, nil
	})))

	_, _ = b.Ask(context.Background(), echoQuery{Value: "ok"})
	_, _ = b.Ask(context.Background(), echoQuery{Value: "bad"})

	assert.Equal(t, []string{"echoQuery", "echoQuery"}, metrics.observed)
	assert.Equal(t, 1, metrics.failures)
}

type recordingTracer struct {
	segments []string
}

func (t *recordingTracer) Trace(ctx context.Context, name string, fn func(context.Context) error) error {
	t.segments = append(t.segments, name)
	return fn(ctx)
}

func TestTracingMiddleware(t *testing.T) {
	tracer := &recordingTracer{}
	b := NewQueryBus(TracingMiddleware(tracer))
	require.NoError(t, b.Register(echoQuery{}, Typed(func(_ context.Context, q echoQuery) (string, error) {
		return q.Value, nil
	})))

	result, err := b.Ask(context.Background(), echoQuery{Value: "traced"})
	require.NoError(t, err)
	assert.Equal(t, "traced", result)
	assert.Equal(t, []string{"echoQuery"}, tracer.segments)
}
