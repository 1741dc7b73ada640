package di

import (
	"context"
	"testing"
	"time"

	"priorify/infrastructure/config"
	"priorify/infrastructure/mail"
	"priorify/infrastructure/mail/sendgrid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(0)
	defer c.Stop()
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "graph:u1:7", "a", 30))
	require.NoError(t, c.Set(ctx, "graph:u1:14", "b", 30))
	require.NoError(t, c.Set(ctx, "graph:u2:7", "c", 30))

	v, ok := c.Get(ctx, "graph:u1:7")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	require.NoError(t, c.DeletePrefix(ctx, "graph:u1:"))
	_, ok = c.Get(ctx, "graph:u1:7")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "graph:u1:14")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "graph:u2:7")
	assert.True(t, ok)

	now = now.Add(31 * time.Second)
	_, ok = c.Get(ctx, "graph:u2:7")
	assert.False(t, ok)
	c.sweep()
	assert.Empty(t, c.items)

	c.Stop()
	c.Stop()
}

func TestProvideAuthOptions(t *testing.T) {
	opts, err := ProvideAuthOptions(&config.Config{IsLambda: true, IPRateLimit: 10, UserRateLimit: 10})
	require.NoError(t, err)
	assert.True(t, opts.TrustGateway)
	assert.Nil(t, opts.Validator)

	opts, err = ProvideAuthOptions(&config.Config{JWTSecret: "s", JWTSigningMethod: "HS256", IPRateLimit: 10, UserRateLimit: 10})
	require.NoError(t, err)
	assert.False(t, opts.TrustGateway)
	assert.NotNil(t, opts.Validator)

	_, err = ProvideAuthOptions(&config.Config{JWTPublicKey: "not pem", JWTSigningMethod: "RS256", IPRateLimit: 10, UserRateLimit: 10})
	assert.Error(t, err)
}

func TestProvideMailDispatcher(t *testing.T) {
	cfg := &config.Config{Environment: "development", DigestTimeZone: "Asia/Seoul"}
	domain, err := ProvideDomainConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", domain.Location().String())

	dispatcher, err := ProvideMailDispatcher(cfg, domain, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &mail.LogDispatcher{}, dispatcher)

	cfg.SendGridAPIKey = "key"
	cfg.SendGridFromEmail = "noreply@priorify.app"
	cfg.AppBaseURL = "https://priorify.example"
	dispatcher, err = ProvideMailDispatcher(cfg, domain, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sendgrid.Dispatcher{}, dispatcher)
}

func TestProvideLogger(t *testing.T) {
	_, err := ProvideLogger(&config.Config{Environment: "development", LogLevel: "debug"})
	assert.NoError(t, err)
	_, err = ProvideLogger(&config.Config{Environment: "production", LogLevel: "loud"})
	assert.Error(t, err)
}
