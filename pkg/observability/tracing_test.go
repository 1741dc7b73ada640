package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledTracerRunsFunction(t *testing.T) {
	tracer := NewTracer("priorify", false)
	boom := errors.New("boom")

	called := false
	err := tracer.Trace(context.Background(), "graph", func(context.Context) error {
		called = true
		return boom
	})

	assert.True(t, called)
	assert.ErrorIs(t, err, boom)
	assert.False(t, tracer.Enabled())
	tracer.Annotate(context.Background(), "userId", "u1")
}

func TestDisabledTracerMiddlewarePassesThrough(t *testing.T) {
	tracer := NewTracer("priorify", false)
	handler := tracer.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestNilTracerIsDisabled(t *testing.T) {
	var tracer *Tracer
	assert.False(t, tracer.Enabled())
	assert.NoError(t, tracer.Trace(context.Background(), "x", func(context.Context) error { return nil }))
}
