package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
	pkgerrors "priorify/pkg/errors"
)

// UserRepository implements ports.UserRepository on DynamoDB. Users live under
// PK USER#<id> / SK PROFILE and are listed through the user list index.
type UserRepository struct {
	client    Client
	tableName string
	listIndex string
	logger    *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository
func NewUserRepository(client Client, tableName, listIndex string, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		listIndex: listIndex,
		logger:    logger,
	}
}

type preferenceItem struct {
	Category string `dynamodbav:"category"`
	Rank     int    `dynamodbav:"rank"`
}

// userItem represents the DynamoDB item structure for a user
type userItem struct {
	PK             string           `dynamodbav:"PK"`
	SK             string           `dynamodbav:"SK"`
	GSI2PK         string           `dynamodbav:"GSI2PK"`
	GSI2SK         string           `dynamodbav:"GSI2SK"`
	EntityType     string           `dynamodbav:"EntityType"`
	UserID         string           `dynamodbav:"UserID"`
	Name           string           `dynamodbav:"Name"`
	Email          string           `dynamodbav:"Email,omitempty"`
	HighPriorities []preferenceItem `dynamodbav:"HighPriorities"`
	LowPriorities  []preferenceItem `dynamodbav:"LowPriorities"`
	CreatedAt      time.Time        `dynamodbav:"CreatedAt"`
	UpdatedAt      time.Time        `dynamodbav:"UpdatedAt"`
	Version        int              `dynamodbav:"Version"`
}

func userKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userPrefix + id},
		"SK": &types.AttributeValueMemberS{Value: profileSortKey},
	}
}

// FindByID retrieves a user by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       userKey(id),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get user", err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewUserNotFoundError(id)
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal user", err)
	}
	return item.toEntity(r.logger), nil
}

// FindByName retrieves the first user with the given display name
func (r *UserRepository) FindByName(ctx context.Context, name string) (*entities.User, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(userListKey))
	filter := expression.Name("Name").Equal(expression.Value(name))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build user name query", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.listIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query user by name", err)
		}
		if len(page.Items) == 0 {
			continue
		}
		var item userItem
		if err := attributevalue.UnmarshalMap(page.Items[0], &item); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal user", err)
		}
		return item.toEntity(r.logger), nil
	}
	return nil, pkgerrors.NewNotFoundError("user").WithCode(pkgerrors.CodeUserNotFound).WithDetail("name", name)
}

// Count returns the number of users on the list index
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	input, err := r.listInput(0)
	if err != nil {
		return 0, err
	}
	input.Select = types.SelectCount

	total := 0
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("count users", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

// FindPage returns users in user id order. Pages before pageIndex are read
// and discarded since the index offers no offsets.
func (r *UserRepository) FindPage(ctx context.Context, pageIndex, pageSize int) ([]*entities.User, error) {
	if pageIndex < 0 || pageSize <= 0 {
		return nil, pkgerrors.NewValidationError("page index must be >= 0 and page size > 0")
	}

	input, err := r.listInput(int32(pageSize))
	if err != nil {
		return nil, err
	}

	skip := pageIndex * pageSize
	users := make([]*entities.User, 0, pageSize)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() && len(users) < pageSize {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list users", err)
		}
		for _, raw := range page.Items {
			if skip > 0 {
				skip--
				continue
			}
			var item userItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, pkgerrors.NewDatabaseError("unmarshal user", err)
			}
			users = append(users, item.toEntity(r.logger))
			if len(users) == pageSize {
				break
			}
		}
	}
	return users, nil
}

// UpdatePriorities replaces both preference lists and bumps the version
func (r *UserRepository) UpdatePriorities(ctx context.Context, userID string, high, low []valueobjects.CategoryPreference, updatedAt time.Time) error {
	update := expression.Set(expression.Name("HighPriorities"), expression.Value(toPreferenceItems(high))).
		Set(expression.Name("LowPriorities"), expression.Value(toPreferenceItems(low))).
		Set(expression.Name("UpdatedAt"), expression.Value(updatedAt.UTC().Format(time.RFC3339Nano))).
		Add(expression.Name("Version"), expression.Value(1))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("build priorities update", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       userKey(userID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return pkgerrors.NewUserNotFoundError(userID)
		}
		r.logger.Error("Failed to update priorities", zap.String("userID", userID), zap.Error(err))
		return pkgerrors.NewDatabaseError("update priorities", err)
	}

	r.logger.Debug("Priorities updated",
		zap.String("userID", userID),
		zap.Int("high", len(high)),
		zap.Int("low", len(low)),
	)
	return nil
}

func (r *UserRepository) listInput(limit int32) (*dynamodb.QueryInput, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(userListKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("build user list query", err)
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.listIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	return input, nil
}

func toPreferenceItems(prefs []valueobjects.CategoryPreference) []preferenceItem {
	items := make([]preferenceItem, 0, len(prefs))
	for _, p := range prefs {
		items = append(items, preferenceItem{Category: p.Category(), Rank: p.Rank()})
	}
	return items
}

func (i userItem) toEntity(logger *zap.Logger) *entities.User {
	return entities.ReconstructUser(
		i.UserID, i.Name, i.Email,
		fromPreferenceItems(i.UserID, i.HighPriorities, logger),
		fromPreferenceItems(i.UserID, i.LowPriorities, logger),
		i.CreatedAt, i.UpdatedAt, i.Version,
	)
}

// fromPreferenceItems drops malformed stored entries instead of failing the load
func fromPreferenceItems(userID string, items []preferenceItem, logger *zap.Logger) []valueobjects.CategoryPreference {
	prefs := make([]valueobjects.CategoryPreference, 0, len(items))
	for _, item := range items {
		p, err := valueobjects.NewCategoryPreference(item.Category, item.Rank)
		if err != nil {
			logger.Warn("Skipping malformed stored preference",
				zap.String("userID", userID),
				zap.String("category", item.Category),
				zap.Int("rank", item.Rank),
			)
			continue
		}
		prefs = append(prefs, p)
	}
	return prefs
}
