package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "priorify/pkg/errors"
)

var errRemote = errors.New("remote down")

func testConfig() BreakerConfig {
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Hour
	return cfg
}

func TestCall_PassesThroughResults(t *testing.T) {
	b := NewBreaker(testConfig(), nil, zap.NewNop())

	v, err := Call(b, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = Call(b, func() (int, error) { return 0, errRemote })
	assert.ErrorIs(t, err, errRemote)
}

func TestCall_OpensAfterFailures(t *testing.T) {
	b := NewBreaker(testConfig(), nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, _ = Call(b, func() (string, error) { return "", errRemote })
	}
	assert.Equal(t, "open", b.State())

	called := false
	_, err := Call(b, func() (string, error) {
		called = true
		return "ok", nil
	})
	assert.False(t, called)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}

func TestCall_IgnoresNonFailures(t *testing.T) {
	clientErr := errors.New("bad request")
	b := NewBreaker(testConfig(), func(err error) bool { return !errors.Is(err, clientErr) }, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := Call(b, func() (bool, error) { return false, clientErr })
		assert.ErrorIs(t, err, clientErr)
	}
	assert.Equal(t, "closed", b.State())
}
