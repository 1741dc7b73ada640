package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/events"
	pkgerrors "priorify/pkg/errors"
)

// Source is the EventBridge source of every event this service emits
const Source = "priorify.api"

// PutEvents accepts at most this many entries per call
const batchSize = 10

const maxRetries = 3

// API is the subset of the EventBridge client the publisher uses
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

var _ API = (*eventbridge.Client)(nil)

// Publisher implements ports.EventPublisher on an EventBridge bus
type Publisher struct {
	client       API
	eventBusName string
	backoff      time.Duration
	logger       *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client API, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		backoff:      100 * time.Millisecond,
		logger:       logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in chunks of ten
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for start := 0; start < len(domainEvents); start += batchSize {
		end := min(start+batchSize, len(domainEvents))
		if err := p.publishChunk(ctx, domainEvents[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishChunk(ctx context.Context, domainEvents []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	for _, event := range domainEvents {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.String("eventType", event.GetEventType()),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(Source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{fmt.Sprintf("arn:aws:priorify::%s", event.GetAggregateID())},
		})
	}

	backoff := p.backoff
	for attempt := 0; len(entries) > 0; attempt++ {
		out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return pkgerrors.NewExternalError("eventbridge", err)
		}
		if out.FailedEntryCount == 0 {
			p.logger.Debug("Events published",
				zap.Int("count", len(entries)),
				zap.String("eventBus", p.eventBusName),
			)
			return nil
		}

		// Entries line up with the request; resend only the rejected ones.
		var failed []types.PutEventsRequestEntry
		for i, result := range out.Entries {
			if result.ErrorCode == nil || i >= len(entries) {
				continue
			}
			p.logger.Warn("Event rejected",
				zap.String("eventType", aws.ToString(entries[i].DetailType)),
				zap.String("errorCode", aws.ToString(result.ErrorCode)),
				zap.String("errorMessage", aws.ToString(result.ErrorMessage)),
				zap.Int("attempt", attempt+1),
			)
			failed = append(failed, entries[i])
		}
		if attempt+1 >= maxRetries {
			return pkgerrors.NewExternalError("eventbridge",
				fmt.Errorf("%d events failed to publish after %d attempts", len(failed), maxRetries))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		entries = failed
	}
	return nil
}
