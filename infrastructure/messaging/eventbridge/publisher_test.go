package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"priorify/domain/events"
	pkgerrors "priorify/pkg/errors"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) != nil {
		return args.Get(0).(*eventbridge.PutEventsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestPublisher(api API) *Publisher {
	p := NewPublisher(api, "priorify-events", zap.NewNop())
	p.backoff = time.Millisecond
	return p
}

func prioritiesEvent(userID string) events.DomainEvent {
	return events.NewPrioritiesUpdated(userID, []string{"work"}, []string{"chores"}, 2, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC))
}

func TestPublisher_Publish(t *testing.T) {
	api := new(mockAPI)
	var input *eventbridge.PutEventsInput
	api.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { input = args.Get(1).(*eventbridge.PutEventsInput) }).
		Return(&eventbridge.PutEventsOutput{}, nil)

	err := newTestPublisher(api).Publish(context.Background(), prioritiesEvent("u1"))
	require.NoError(t, err)

	require.Len(t, input.Entries, 1)
	entry := input.Entries[0]
	assert.Equal(t, "priorify-events", aws.ToString(entry.EventBusName))
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.EventTypePrioritiesUpdated, aws.ToString(entry.DetailType))

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "u1", detail["user_id"])
}

func TestPublisher_PublishBatchChunks(t *testing.T) {
	api := new(mockAPI)
	var sizes []int
	api.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sizes = append(sizes, len(args.Get(1).(*eventbridge.PutEventsInput).Entries))
		}).
		Return(&eventbridge.PutEventsOutput{}, nil)

	batch := make([]events.DomainEvent, 0, 23)
	for i := 0; i < 23; i++ {
		batch = append(batch, prioritiesEvent(fmt.Sprintf("u%d", i)))
	}

	require.NoError(t, newTestPublisher(api).PublishBatch(context.Background(), batch))
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestPublisher_RetriesRejectedEntries(t *testing.T) {
	api := new(mockAPI)
	api.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 2
	})).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{
			{EventId: aws.String("e1")},
			{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")},
		},
	}, nil).Once()

	var retried *eventbridge.PutEventsInput
	api.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 1
	})).Run(func(args mock.Arguments) { retried = args.Get(1).(*eventbridge.PutEventsInput) }).
		Return(&eventbridge.PutEventsOutput{}, nil).Once()

	err := newTestPublisher(api).PublishBatch(context.Background(), []events.DomainEvent{
		prioritiesEvent("u1"), prioritiesEvent("u2"),
	})

	require.NoError(t, err)
	assert.Contains(t, aws.ToString(retried.Entries[0].Detail), `"user_id":"u2"`)
	api.AssertExpectations(t)
}

func TestPublisher_GivesUpAfterRetries(t *testing.T) {
	api := new(mockAPI)
	api.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}, nil)

	err := newTestPublisher(api).Publish(context.Background(), prioritiesEvent("u1"))

	require.Error(t, err)
	assert.True(t, pkgerrors.IsExternal(err))
	api.AssertNumberOfCalls(t, "PutEvents", maxRetries)
}

func TestPublisher_TransportError(t *testing.T) {
	api := new(mockAPI)
	api.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("no route"))

	err := newTestPublisher(api).Publish(context.Background(), prioritiesEvent("u1"))

	assert.True(t, pkgerrors.IsExternal(err))
	api.AssertNumberOfCalls(t, "PutEvents", 1)
}

func TestPublisher_EmptyBatch(t *testing.T) {
	api := new(mockAPI)
	require.NoError(t, newTestPublisher(api).PublishBatch(context.Background(), nil))
	api.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}
