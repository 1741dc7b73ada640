package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/core/entities"
	pkgerrors "priorify/pkg/errors"
)

type recordingObserver struct {
	calls int
	hits  int
	err   error
}

func (o *recordingObserver) ObserveSimilaritySearch(_ time.Duration, hits int, err error) {
	o.calls++
	o.hits = hits
	o.err = err
}

func newTestIndex(t *testing.T, handler http.HandlerFunc, observer Observer) *Index {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	idx, err := NewIndex(Config{URL: srv.URL + "/", Collection: "schedules", VectorDim: 2, APIKey: "secret"}, observer, zap.NewNop())
	require.NoError(t, err)
	return idx
}

func TestIndex_Search(t *testing.T) {
	var body map[string]any
	observer := &recordingObserver{}
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/schedules/points/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"status":"ok","result":[
			{"id":"p-1","score":0.61,"payload":{"scheduleId":"s2"}},
			{"id":"s3","score":0.92,"payload":{}},
			{"id":7,"score":0.61},
			{"id":null,"score":0.99}
		]}`))
	}, observer)

	hits, err := idx.Search(context.Background(), ports.SimilarityQuery{
		OwnerID:       "u1",
		Status:        entities.ScheduleActive,
		Vector:        []float32{0.1, 0.2},
		CandidatePool: 100,
		Limit:         20,
	})
	require.NoError(t, err)

	assert.Equal(t, []ports.SimilarityHit{
		{ScheduleID: "s3", Score: 0.92},
		{ScheduleID: "7", Score: 0.61},
		{ScheduleID: "s2", Score: 0.61},
	}, hits)
	assert.Equal(t, float64(20), body["limit"])
	assert.Equal(t, map[string]any{"hnsw_ef": float64(100)}, body["params"])
	filter := body["filter"].(map[string]any)["must"].([]any)
	assert.Len(t, filter, 2)
	assert.Equal(t, "ownerId", filter[0].(map[string]any)["key"])
	assert.Equal(t, 1, observer.calls)
	assert.Equal(t, 3, observer.hits)
}

func TestIndex_SearchRejectsWrongDimension(t *testing.T) {
	called := false
	idx := newTestIndex(t, func(http.ResponseWriter, *http.Request) { called = true }, nil)

	_, err := idx.Search(context.Background(), ports.SimilarityQuery{OwnerID: "u1", Vector: []float32{1, 2, 3}})

	require.Error(t, err)
	assert.False(t, called)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorValidation, opErr.Code)
	assert.Equal(t, pkgerrors.CodeSimilarityIndexError, pkgerrors.GetAppError(err).Code)
}

func TestIndex_SearchServerErrorOpensBreaker(t *testing.T) {
	requests := 0
	idx := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":{"error":"boom"}}`))
	}, nil)

	query := ports.SimilarityQuery{OwnerID: "u1", Vector: []float32{1, 0}}
	for i := 0; i < 5; i++ {
		_, err := idx.Search(context.Background(), query)
		assert.True(t, pkgerrors.IsExternal(err))
	}

	_, err := idx.Search(context.Background(), query)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Equal(t, 5, requests)
}

func TestIndex_SearchBadRequestDoesNotTrip(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}, nil)

	for i := 0; i < 6; i++ {
		_, err := idx.Search(context.Background(), ports.SimilarityQuery{OwnerID: "u1", Vector: []float32{1, 0}})
		var opErr *OperationError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, http.StatusBadRequest, opErr.StatusCode)
	}
	assert.Equal(t, "closed", idx.breaker.State())
}

func TestIndex_Ready(t *testing.T) {
	size := 2
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/readyz":
			w.WriteHeader(http.StatusOK)
		case "/collections/schedules":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "ok",
				"result": map[string]any{"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": size}}}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, nil)

	require.NoError(t, idx.Ready(context.Background()))

	size = 768
	err := idx.Ready(context.Background())
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorValidation, opErr.Code)
}

func TestNewIndex_RequiresSettings(t *testing.T) {
	_, err := NewIndex(Config{Collection: "c"}, nil, zap.NewNop())
	assert.Error(t, err)
	_, err = NewIndex(Config{URL: "http://localhost"}, nil, zap.NewNop())
	assert.Error(t, err)
}
