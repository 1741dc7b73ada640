// Package mail holds the mail delivery adapters.
package mail

import (
	"context"

	"go.uber.org/zap"

	"priorify/application/ports"
)

// LogDispatcher records digests instead of sending them. It is used when no
// SendGrid key is configured.
type LogDispatcher struct {
	logger *zap.Logger
}

var _ ports.MailDispatcher = (*LogDispatcher)(nil)

// NewLogDispatcher creates a dispatcher that only logs
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendReminderDigest(_ context.Context, to ports.Recipient, digest ports.ReminderDigest) error {
	d.logger.Info("Mail disabled, reminder digest not sent",
		zap.String("userID", to.UserID),
		zap.Int("urgent", len(digest.Urgent)),
		zap.Int("upcoming", len(digest.Upcoming)),
	)
	return nil
}

func (d *LogDispatcher) SendTopPriorityDigest(_ context.Context, to ports.Recipient, schedules []ports.RankedSchedule) error {
	d.logger.Info("Mail disabled, top priority digest not sent",
		zap.String("userID", to.UserID),
		zap.Int("schedules", len(schedules)),
	)
	return nil
}
