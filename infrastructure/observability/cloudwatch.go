package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"priorify/application/ports"
)

// CloudWatchAPI is the subset of the CloudWatch client used for publishing
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ CloudWatchAPI = (*cloudwatch.Client)(nil)

// CloudWatchMetrics publishes digest run results as custom metrics
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchAPI
	now       func() time.Time
	logger    *zap.Logger
}

var _ ports.DigestMetrics = (*CloudWatchMetrics)(nil)

// NewCloudWatchMetrics creates a new CloudWatch publisher. A nil client
// disables publishing.
func NewCloudWatchMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		now:       time.Now,
		logger:    logger,
	}
}

// RecordDigestRun sends one datum per counter, dimensioned by job
func (m *CloudWatchMetrics) RecordDigestRun(ctx context.Context, stats ports.DigestRunStats) {
	if m.client == nil {
		return
	}

	at := aws.Time(m.now())
	dims := []types.Dimension{{Name: aws.String("Job"), Value: aws.String(stats.Job)}}
	count := func(name string, v int) types.MetricDatum {
		return types.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Value:      aws.Float64(float64(v)),
			Unit:       types.StandardUnitCount,
			Timestamp:  at,
		}
	}

	data := []types.MetricDatum{
		count("DigestUsersVisited", stats.Visited),
		count("DigestUsersSucceeded", stats.Succeeded),
		count("DigestUsersFailed", stats.Failed),
		count("DigestUsersSkipped", stats.Skipped),
		count("DigestMailsDispatched", stats.Dispatched),
		count("DigestBatches", stats.Batches),
		{
			MetricName: aws.String("DigestRunDuration"),
			Dimensions: dims,
			Value:      aws.Float64(float64(stats.Duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  at,
		},
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		m.logger.Warn("Failed to publish digest metrics", zap.String("job", stats.Job), zap.Error(err))
	}
}
