package main

import (
	"context"
	"encoding/json"
	"log"

	"priorify/application/services"
	"priorify/infrastructure/config"
	"priorify/infrastructure/di"
	pkgerrors "priorify/pkg/errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

var container *di.Container

// jobDetail is the detail an EventBridge schedule rule attaches to its event
type jobDetail struct {
	Job string `json:"job"`
}

func jobFromEvent(event events.CloudWatchEvent) (string, error) {
	if len(event.Detail) == 0 {
		return "", pkgerrors.NewValidationError("event detail is required")
	}
	var detail jobDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return "", pkgerrors.NewValidationError("invalid event detail").WithCause(err)
	}
	if detail.Job == "" {
		return "", pkgerrors.NewValidationError("event detail has no job").
			WithCode(pkgerrors.CodeUnknownJob)
	}
	return detail.Job, nil
}

// Handler runs the digest job named by the scheduled event
func Handler(ctx context.Context, event events.CloudWatchEvent) (*services.RunReport, error) {
	job, err := jobFromEvent(event)
	if err != nil {
		container.Logger.Error("Rejected digest event", zap.String("eventID", event.ID), zap.Error(err))
		return nil, err
	}

	container.Logger.Info("Digest event received",
		zap.String("eventID", event.ID),
		zap.String("job", job),
		zap.Strings("resources", event.Resources),
	)

	report, err := container.Digests.RunJob(ctx, job)
	if err != nil {
		container.Logger.Error("Digest job failed", zap.String("job", job), zap.Error(err))
		return report, err
	}
	return report, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	lambda.Start(Handler)
}
