package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
	pkgerrors "priorify/pkg/errors"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockClient) Query(ctx context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockClient) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.BatchGetItemOutput)
	return out, args.Error(1)
}

var baseTime = time.Date(2025, 5, 12, 1, 0, 0, 0, time.UTC)

func userAV(t *testing.T, id, email string) map[string]types.AttributeValue {
	t.Helper()
	u := entities.ReconstructUser(id, "name-"+id, email,
		[]valueobjects.CategoryPreference{valueobjects.MustCategoryPreference("work", 1)},
		nil, baseTime, baseTime, 2)
	av, err := attributevalue.MarshalMap(toUserItem(u))
	require.NoError(t, err)
	return av
}

func scheduleAV(t *testing.T, s *entities.Schedule) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(toScheduleItem(s))
	require.NoError(t, err)
	return av
}

func firstPage(in *dynamodb.QueryInput) bool  { return len(in.ExclusiveStartKey) == 0 }
func secondPage(in *dynamodb.QueryInput) bool { return len(in.ExclusiveStartKey) > 0 }

func TestUserRepository_FindByID(t *testing.T) {
	client := new(mockClient)
	repo := NewUserRepository(client, "table", "UserListIndex", zap.NewNop())

	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.Key["PK"].(*types.AttributeValueMemberS).Value == "USER#u1"
	})).Return(&dynamodb.GetItemOutput{Item: userAV(t, "u1", "a@example.com")}, nil)
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	user, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email())
	assert.Equal(t, 2, user.Version())
	require.Len(t, user.HighPriorities(), 1)
	assert.Equal(t, "work", user.HighPriorities()[0].Category())
	assert.True(t, baseTime.Equal(user.CreatedAt()))

	_, err = repo.FindByID(context.Background(), "ghost")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUserRepository_FindPageSkipsEarlierPages(t *testing.T) {
	client := new(mockClient)
	repo := NewUserRepository(client, "table", "UserListIndex", zap.NewNop())

	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return firstPage(in) && aws.ToString(in.IndexName) == "UserListIndex" && aws.ToInt32(in.Limit) == 2
	})).Return(&dynamodb.QueryOutput{
		Items:            []map[string]types.AttributeValue{userAV(t, "u1", ""), userAV(t, "u2", "")},
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "USER#u2"}},
	}, nil)
	client.On("Query", mock.Anything, mock.MatchedBy(secondPage)).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{userAV(t, "u3", "")},
	}, nil)

	users, err := repo.FindPage(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u3", users[0].ID())

	_, err = repo.FindPage(context.Background(), -1, 2)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestUserRepository_Count(t *testing.T) {
	client := new(mockClient)
	repo := NewUserRepository(client, "table", "UserListIndex", zap.NewNop())

	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return firstPage(in) && in.Select == types.SelectCount
	})).Return(&dynamodb.QueryOutput{
		Count:            3,
		LastEvaluatedKey: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "x"}},
	}, nil)
	client.On("Query", mock.Anything, mock.MatchedBy(secondPage)).Return(&dynamodb.QueryOutput{Count: 2}, nil)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestUserRepository_UpdatePriorities(t *testing.T) {
	client := new(mockClient)
	repo := NewUserRepository(client, "table", "UserListIndex", zap.NewNop())

	client.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return in.Key["PK"].(*types.AttributeValueMemberS).Value == "USER#u1" && in.ConditionExpression != nil
	})).Return(&dynamodb.UpdateItemOutput{}, nil).Once()
	client.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}).Once()

	high := []valueobjects.CategoryPreference{valueobjects.MustCategoryPreference("work", 1)}
	require.NoError(t, repo.UpdatePriorities(context.Background(), "u1", high, nil, baseTime))

	err := repo.UpdatePriorities(context.Background(), "ghost", high, nil, baseTime)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestScheduleRepository_FindByOwner(t *testing.T) {
	client := new(mockClient)
	repo := NewScheduleRepository(client, "table", "OwnerStartIndex", zap.NewNop())

	start := baseTime.Add(time.Hour)
	valid := &entities.Schedule{ID: "s1", OwnerID: "u1", Title: "Report", Categories: []string{"work"},
		StartAt: &start, Status: entities.ScheduleActive, Embedding: []float32{0.5, 0.25}}
	broken := scheduleAV(t, &entities.Schedule{ID: "s2", OwnerID: "u1", Status: entities.ScheduleActive})
	broken["Status"] = &types.AttributeValueMemberS{Value: "archived"}

	from, to := baseTime, baseTime.AddDate(0, 0, 7)
	client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		var values []string
		for _, v := range in.ExpressionAttributeValues {
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				values = append(values, s.Value)
			}
		}
		return aws.ToString(in.IndexName) == "OwnerStartIndex" &&
			in.FilterExpression != nil &&
			contains(values, "OWNER#u1") &&
			contains(values, "2025-05-12T01:00:00.000Z") &&
			contains(values, "2025-05-19T01:00:00.000Z") &&
			contains(values, "active")
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{scheduleAV(t, valid), broken},
	}, nil)

	schedules, err := repo.FindByOwner(context.Background(), ports.ScheduleQuery{
		OwnerID:   "u1",
		Statuses:  []entities.ScheduleStatus{entities.ScheduleActive},
		StartFrom: &from,
		StartTo:   &to,
	})
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, "Report", schedules[0].Title)
	assert.Equal(t, []float32{0.5, 0.25}, schedules[0].Embedding)
	assert.True(t, start.Equal(*schedules[0].StartAt))

	_, err = repo.FindByOwner(context.Background(), ports.ScheduleQuery{})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestScheduleRepository_FindByOwnerError(t *testing.T) {
	client := new(mockClient)
	repo := NewScheduleRepository(client, "table", "OwnerStartIndex", zap.NewNop())
	client.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := repo.FindByOwner(context.Background(), ports.ScheduleQuery{OwnerID: "u1"})

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestScheduleRepository_FindByIDsRetriesUnprocessedKeys(t *testing.T) {
	client := new(mockClient)
	repo := NewScheduleRepository(client, "table", "OwnerStartIndex", zap.NewNop())

	s1 := &entities.Schedule{ID: "s1", OwnerID: "u1", Status: entities.ScheduleActive}
	s2 := &entities.Schedule{ID: "s2", OwnerID: "u1", Status: entities.ScheduleCompleted}

	client.On("BatchGetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.BatchGetItemInput) bool {
		return len(in.RequestItems["table"].Keys) == 3
	})).Return(&dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]types.AttributeValue{"table": {scheduleAV(t, s2)}},
		UnprocessedKeys: map[string]types.KeysAndAttributes{
			"table": {Keys: []map[string]types.AttributeValue{scheduleKey("s1")}},
		},
	}, nil).Once()
	client.On("BatchGetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.BatchGetItemInput) bool {
		return len(in.RequestItems["table"].Keys) == 1
	})).Return(&dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]types.AttributeValue{"table": {scheduleAV(t, s1)}},
	}, nil).Once()

	schedules, err := repo.FindByIDs(context.Background(), []string{"s1", "missing", "s2", "s1"})
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Equal(t, "s1", schedules[0].ID)
	assert.Equal(t, "s2", schedules[1].ID)
	client.AssertExpectations(t)
}

func TestScheduleRepository_FindByID(t *testing.T) {
	client := new(mockClient)
	repo := NewScheduleRepository(client, "table", "OwnerStartIndex", zap.NewNop())
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := repo.FindByID(context.Background(), "s1")

	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, pkgerrors.CodeScheduleNotFound, pkgerrors.GetAppError(err).Code)
}

func TestStartSortKey(t *testing.T) {
	early := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("KST", 9*3600))
	late := early.Add(500 * time.Millisecond)

	assert.Equal(t, "2025-01-01T18:04:05.000Z", startSortKey(&early))
	assert.Less(t, startSortKey(&early), startSortKey(&late))
	assert.Less(t, startSortKey(&late), undatedSortKey)
	assert.Less(t, latestSortKey, undatedSortKey)
}

func TestDistributedLock(t *testing.T) {
	client := new(mockClient)
	locker := NewDistributedLock(client, "table", "worker-1", zap.NewNop())
	locker.now = func() time.Time { return baseTime }

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.Item["PK"].(*types.AttributeValueMemberS).Value == "LOCK#digest:daily-reminder" &&
			in.Item["Owner"].(*types.AttributeValueMemberS).Value == "worker-1"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()
	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("held")}).Once()
	client.On("DeleteItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("gone")}).Once()

	lock, ok, err := locker.TryAcquire(context.Background(), "digest:daily-reminder", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, baseTime.Add(time.Minute), lock.(*Lock).ExpiresAt())

	_, ok, err = locker.TryAcquire(context.Background(), "digest:daily-reminder", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, lock.Release(context.Background()))
	client.AssertExpectations(t)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func toUserItem(u *entities.User) userItem {
	return userItem{
		PK:             userPrefix + u.ID(),
		SK:             profileSortKey,
		GSI2PK:         userListKey,
		GSI2SK:         u.ID(),
		EntityType:     "USER",
		UserID:         u.ID(),
		Name:           u.Name(),
		Email:          u.Email(),
		HighPriorities: toPreferenceItems(u.HighPriorities()),
		LowPriorities:  toPreferenceItems(u.LowPriorities()),
		CreatedAt:      u.CreatedAt().UTC(),
		UpdatedAt:      u.UpdatedAt().UTC(),
		Version:        u.Version(),
	}
}

func toScheduleItem(s *entities.Schedule) scheduleItem {
	return scheduleItem{
		PK:         schedulePrefix + s.ID,
		SK:         scheduleSortKey,
		GSI1PK:     ownerPrefix + s.OwnerID,
		GSI1SK:     startSortKey(s.StartAt),
		EntityType: "SCHEDULE",
		Schedule:   *s,
	}
}
