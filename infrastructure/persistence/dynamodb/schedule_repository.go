package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/core/entities"
	pkgerrors "priorify/pkg/errors"
)

// maxBatchGetKeys is the DynamoDB limit for one BatchGetItem call
const maxBatchGetKeys = 100

// maxUnprocessedRetries bounds the re-requests of throttled batch keys
const maxUnprocessedRetries = 3

// ScheduleRepository implements ports.ScheduleRepository on DynamoDB.
// Schedules live under PK SCHEDULE#<id> and are indexed by owner and start
// time on the owner-start index.
type ScheduleRepository struct {
	client     Client
	tableName  string
	ownerIndex string
	logger     *zap.Logger
}

var _ ports.ScheduleRepository = (*ScheduleRepository)(nil)

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(client Client, tableName, ownerIndex string, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{
		client:     client,
		tableName:  tableName,
		ownerIndex: ownerIndex,
		logger:     logger,
	}
}

// scheduleItem represents the DynamoDB item structure for a schedule
type scheduleItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	entities.Schedule
}

func scheduleKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: schedulePrefix + id},
		"SK": &types.AttributeValueMemberS{Value: scheduleSortKey},
	}
}

// FindByOwner queries the owner-start index. A start bound excludes
// undated schedules since their sort key lies outside every time range.
func (r *ScheduleRepository) FindByOwner(ctx context.Context, query ports.ScheduleQuery) ([]*entities.Schedule, error) {
	if query.OwnerID == "" {
		return nil, pkgerrors.NewValidationError("owner id is required")
	}

	keyCond := expression.Key("GSI1PK").Equal(expression.Value(ownerPrefix + query.OwnerID))
	switch {
	case query.StartFrom != nil && query.StartTo != nil:
		keyCond = keyCond.And(expression.Key("GSI1SK").Between(
			expression.Value(startSortKey(query.StartFrom)),
			expression.Value(startSortKey(query.StartTo)),
		))
	case query.StartFrom != nil:
		keyCond = keyCond.And(expression.Key("GSI1SK").Between(
			expression.Value(startSortKey(query.StartFrom)),
			expression.Value(latestSortKey),
		))
	case query.StartTo != nil:
		keyCond = keyCond.And(expression.Key("GSI1SK").LessThanEqual(expression.Value(startSortKey(query.StartTo))))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if len(query.Statuses) > 0 {
		builder = builder.WithFilter(statusFilter(query.Statuses))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build schedule query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.ownerIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}

	start := time.Now()
	var schedules []*entities.Schedule
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			r.logger.Error("Failed to query schedules",
				zap.String("ownerID", query.OwnerID),
				zap.Error(err),
			)
			return nil, pkgerrors.NewDatabaseError("query schedules", err)
		}
		for _, raw := range page.Items {
			s, ok := r.decode(raw)
			if ok {
				schedules = append(schedules, s)
			}
		}
	}

	r.logger.Debug("Schedules loaded",
		zap.String("ownerID", query.OwnerID),
		zap.Int("count", len(schedules)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return schedules, nil
}

// FindByID retrieves one schedule
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*entities.Schedule, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       scheduleKey(id),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get schedule", err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewScheduleNotFoundError(id)
	}
	s, ok := r.decode(out.Item)
	if !ok {
		return nil, pkgerrors.NewInternalError("stored schedule is malformed").WithDetail("scheduleId", id)
	}
	return s, nil
}

// FindByIDs batch-reads schedules. The result follows the order of ids;
// unknown ids are skipped.
func (r *ScheduleRepository) FindByIDs(ctx context.Context, ids []string) ([]*entities.Schedule, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	found := make(map[string]*entities.Schedule, len(unique))
	for start := 0; start < len(unique); start += maxBatchGetKeys {
		end := start + maxBatchGetKeys
		if end > len(unique) {
			end = len(unique)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range unique[start:end] {
			keys = append(keys, scheduleKey(id))
		}
		if err := r.batchGet(ctx, keys, found); err != nil {
			return nil, err
		}
	}

	schedules := make([]*entities.Schedule, 0, len(found))
	for _, id := range unique {
		if s, ok := found[id]; ok {
			schedules = append(schedules, s)
		}
	}
	return schedules, nil
}

func (r *ScheduleRepository) batchGet(ctx context.Context, keys []map[string]types.AttributeValue, found map[string]*entities.Schedule) error {
	request := map[string]types.KeysAndAttributes{
		r.tableName: {Keys: keys},
	}
	for attempt := 0; len(request) > 0; attempt++ {
		if attempt > maxUnprocessedRetries {
			return pkgerrors.NewDatabaseError("batch get schedules", pkgerrors.NewUnavailableError("dynamodb"))
		}
		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return pkgerrors.NewDatabaseError("batch get schedules", err)
		}
		for _, raw := range out.Responses[r.tableName] {
			if s, ok := r.decode(raw); ok {
				found[s.ID] = s
			}
		}
		request = out.UnprocessedKeys
	}
	return nil
}

// decode unmarshals a stored schedule, skipping records that fail validation
func (r *ScheduleRepository) decode(raw map[string]types.AttributeValue) (*entities.Schedule, bool) {
	var item scheduleItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		r.logger.Warn("Skipping undecodable schedule", zap.Error(err))
		return nil, false
	}
	s := item.Schedule
	if err := s.Validate(); err != nil {
		r.logger.Warn("Skipping invalid schedule", zap.String("scheduleID", s.ID), zap.Error(err))
		return nil, false
	}
	return &s, true
}

func statusFilter(statuses []entities.ScheduleStatus) expression.ConditionBuilder {
	operands := make([]expression.OperandBuilder, 0, len(statuses))
	for _, st := range statuses {
		operands = append(operands, expression.Value(string(st)))
	}
	if len(operands) == 1 {
		return expression.Name("Status").Equal(operands[0])
	}
	return expression.Name("Status").In(operands[0], operands[1:]...)
}
