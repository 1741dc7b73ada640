package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/application/ports/mocks"
	"priorify/domain/core/entities"
)

func embedded(id string) *entities.Schedule {
	s := schedule(id, id, after(time.Hour), nil, "work")
	s.Embedding = []float32{0.3, 0.4}
	return s
}

func TestSimilarityLinker_FiltersAndOrders(t *testing.T) {
	cfg := testConfig().Similarity
	cfg.MaxResults = 2

	index := new(mocks.SimilarityIndex)
	index.On("Search", mock.Anything, ports.SimilarityQuery{
		OwnerID:       "u1",
		Status:        entities.ScheduleActive,
		Vector:        []float32{0.3, 0.4},
		CandidatePool: cfg.CandidatePool,
		Limit:         cfg.SearchLimit,
	}).Return([]ports.SimilarityHit{
		{ScheduleID: "b", Score: 0.6},
		{ScheduleID: "self", Score: 0.99},
		{ScheduleID: "c", Score: 0.5},
		{ScheduleID: "a", Score: 0.9},
		{ScheduleID: "a", Score: 0.7},
		{ScheduleID: "", Score: 0.95},
		{ScheduleID: "d", Score: 0.49},
	}, nil)

	linker := NewSimilarityLinker(index, cfg, zap.NewNop())
	matches := linker.FindSimilar(context.Background(), embedded("self"))

	assert.Equal(t, []SimilarMatch{{ScheduleID: "a", Score: 0.9}, {ScheduleID: "b", Score: 0.6}}, matches)
	index.AssertExpectations(t)
}

func TestSimilarityLinker_ThresholdIsInclusive(t *testing.T) {
	index := new(mocks.SimilarityIndex)
	index.On("Search", mock.Anything, mock.Anything).Return([]ports.SimilarityHit{{ScheduleID: "x", Score: 0.5}}, nil)

	linker := NewSimilarityLinker(index, testConfig().Similarity, zap.NewNop())

	assert.Equal(t, []string{"x"}, linker.SimilarIDs(context.Background(), embedded("self")))
}

func TestSimilarityLinker_SkipsWithoutEmbedding(t *testing.T) {
	index := new(mocks.SimilarityIndex)
	linker := NewSimilarityLinker(index, testConfig().Similarity, zap.NewNop())

	assert.Empty(t, linker.FindSimilar(context.Background(), schedule("s", "s", nil, nil)))
	index.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSimilarityLinker_IndexErrorYieldsEmpty(t *testing.T) {
	index := new(mocks.SimilarityIndex)
	index.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	linker := NewSimilarityLinker(index, testConfig().Similarity, zap.NewNop())

	assert.Empty(t, linker.FindSimilar(context.Background(), embedded("self")))
}

func TestSimilarityLinker_NilLinker(t *testing.T) {
	var linker *SimilarityLinker
	assert.Empty(t, linker.SimilarIDs(context.Background(), embedded("self")))
}
