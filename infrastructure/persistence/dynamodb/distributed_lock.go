package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"priorify/application/ports"
	pkgerrors "priorify/pkg/errors"
)

// DistributedLock provides named locks using DynamoDB conditional writes.
// An expired record can be taken over by the next owner.
type DistributedLock struct {
	client    Client
	tableName string
	ownerID   string
	now       func() time.Time
	logger    *zap.Logger
}

var _ ports.Locker = (*DistributedLock)(nil)

// NewDistributedLock creates a lock manager. Every lock it takes is owned by
// ownerID; an empty owner gets a random one.
func NewDistributedLock(client Client, tableName, ownerID string, logger *zap.Logger) *DistributedLock {
	if ownerID == "" {
		ownerID = uuid.NewString()
	}
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		ownerID:   ownerID,
		now:       time.Now,
		logger:    logger,
	}
}

// TryAcquire takes the lock for resource without waiting
func (dl *DistributedLock) TryAcquire(ctx context.Context, resource string, ttl time.Duration) (ports.Lock, bool, error) {
	now := dl.now().UTC()
	expiresAt := now.Add(ttl)
	lockID := uuid.NewString()

	_, err := dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(dl.tableName),
		Item: map[string]types.AttributeValue{
			"PK":         &types.AttributeValueMemberS{Value: lockPrefix + resource},
			"SK":         &types.AttributeValueMemberS{Value: lockSortKey},
			"LockID":     &types.AttributeValueMemberS{Value: lockID},
			"Owner":      &types.AttributeValueMemberS{Value: dl.ownerID},
			"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
			"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Debug("Lock already held", zap.String("resource", resource))
			return nil, false, nil
		}
		return nil, false, pkgerrors.NewDatabaseError("acquire lock", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("lockID", lockID),
		zap.Duration("ttl", ttl),
	)
	return &Lock{manager: dl, resource: resource, lockID: lockID, expiresAt: expiresAt}, true, nil
}

func (dl *DistributedLock) release(ctx context.Context, resource, lockID string) error {
	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockPrefix + resource},
			"SK": &types.AttributeValueMemberS{Value: lockSortKey},
		},
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
			":owner":  &types.AttributeValueMemberS{Value: dl.ownerID},
		},
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			// expired and taken over, nothing left to release
			dl.logger.Warn("Lock already released or taken over",
				zap.String("resource", resource),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return pkgerrors.NewDatabaseError("release lock", err)
	}

	dl.logger.Debug("Lock released", zap.String("resource", resource), zap.String("lockID", lockID))
	return nil
}

// Lock is an acquired distributed lock
type Lock struct {
	manager   *DistributedLock
	resource  string
	lockID    string
	expiresAt time.Time
}

// Release deletes the lock record if this owner still holds it
func (l *Lock) Release(ctx context.Context) error {
	return l.manager.release(ctx, l.resource, l.lockID)
}

// ExpiresAt returns when the lock lapses
func (l *Lock) ExpiresAt() time.Time {
	return l.expiresAt
}
