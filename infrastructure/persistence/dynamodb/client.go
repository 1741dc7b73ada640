package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Client is the subset of the DynamoDB API used by the repositories
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Key layout of the single-table design
const (
	userPrefix      = "USER#"
	schedulePrefix  = "SCHEDULE#"
	ownerPrefix     = "OWNER#"
	lockPrefix      = "LOCK#"
	profileSortKey  = "PROFILE"
	scheduleSortKey = "SCHEDULE"
	lockSortKey     = "LOCK"
	userListKey     = "USERS"

	// undatedSortKey sorts after every timestamp so undated schedules come last
	undatedSortKey = "~"

	// latestSortKey is the upper bound of every dated sort key
	latestSortKey = "9999-12-31T23:59:59.999Z"
)

// sortKeyLayout has a fixed width so that keys order lexicographically
const sortKeyLayout = "2006-01-02T15:04:05.000Z"

func startSortKey(t *time.Time) string {
	if t == nil {
		return undatedSortKey
	}
	return t.UTC().Format(sortKeyLayout)
}
