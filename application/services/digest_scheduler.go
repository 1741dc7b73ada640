package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/valueobjects"
	"priorify/domain/events"
	pkgerrors "priorify/pkg/errors"
	"priorify/pkg/utils"
)

// Digest job names
const (
	JobDailyReminder     = "daily-reminder"
	JobTopPriorityDigest = "top-priority-digest"
)

// RunReport is the outcome of one digest run.
// Succeeded + Failed always equals Visited.
type RunReport struct {
	RunID      string        `json:"runId"`
	Job        string        `json:"job"`
	TotalUsers int           `json:"totalUsers"`
	Batches    int           `json:"batches"`
	Visited    int           `json:"visited"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Dispatched int           `json:"dispatched"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	Cancelled  bool          `json:"cancelled"`
}

// batchOutcome accumulates the per-user results of one page
type batchOutcome struct {
	visited    int
	succeeded  int
	failed     int
	skipped    int
	dispatched int
	empty      bool
}

func (r *RunReport) add(o batchOutcome) {
	r.Visited += o.visited
	r.Succeeded += o.succeeded
	r.Failed += o.failed
	r.Skipped += o.skipped
	r.Dispatched += o.dispatched
}

// userJob processes one user. dispatched reports whether a mail was sent.
type userJob func(ctx context.Context, user *entities.User) (dispatched bool, err error)

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// DigestSchedulerDeps are the collaborators of a DigestScheduler. Locker,
// Metrics and Publisher are optional.
type DigestSchedulerDeps struct {
	Users     ports.UserRepository
	Schedules ports.ScheduleRepository
	Ranker    *Ranker
	Mailer    ports.MailDispatcher
	Locker    ports.Locker
	Metrics   ports.DigestMetrics
	Publisher ports.EventPublisher
	Tracer    ports.Tracer
	Clock     ports.Clock
	Sleep     Sleeper
	Logger    *zap.Logger
}

// DigestScheduler runs the reminder and top-priority digests over the whole
// user population in fixed-size pages.
type DigestScheduler struct {
	users     ports.UserRepository
	schedules ports.ScheduleRepository
	ranker    *Ranker
	mailer    ports.MailDispatcher
	locker    ports.Locker
	metrics   ports.DigestMetrics
	publisher ports.EventPublisher
	tracer    ports.Tracer
	clock     ports.Clock
	sleep     Sleeper
	cfg       config.DigestConfig
	loc       *time.Location
	logger    *zap.Logger
}

// NewDigestScheduler creates a new digest scheduler
func NewDigestScheduler(deps DigestSchedulerDeps, cfg *config.DomainConfig) *DigestScheduler {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Sleep == nil {
		deps.Sleep = SleepContext
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &DigestScheduler{
		users:     deps.Users,
		schedules: deps.Schedules,
		ranker:    deps.Ranker,
		mailer:    deps.Mailer,
		locker:    deps.Locker,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
		tracer:    deps.Tracer,
		clock:     deps.Clock,
		sleep:     deps.Sleep,
		cfg:       cfg.Digest,
		loc:       cfg.Location(),
		logger:    deps.Logger,
	}
}

// RegisterJobs registers both digest jobs on a job scheduler
func (s *DigestScheduler) RegisterJobs(scheduler ports.JobScheduler, reminderSpec, topPrioritySpec string) error {
	if err := scheduler.Register(JobDailyReminder, reminderSpec, func(ctx context.Context) error {
		_, err := s.RunJob(ctx, JobDailyReminder)
		return err
	}); err != nil {
		return err
	}
	return scheduler.Register(JobTopPriorityDigest, topPrioritySpec, func(ctx context.Context) error {
		_, err := s.RunJob(ctx, JobTopPriorityDigest)
		return err
	})
}

// Jobs returns the names of the jobs this scheduler can run
func (s *DigestScheduler) Jobs() []string {
	return []string{JobDailyReminder, JobTopPriorityDigest}
}

// RunJob runs a digest job by name, traced when a tracer is configured
func (s *DigestScheduler) RunJob(ctx context.Context, job string) (*RunReport, error) {
	if s.tracer == nil {
		return s.runJob(ctx, job)
	}
	var report *RunReport
	err := s.tracer.Trace(ctx, "digest."+job, func(ctx context.Context) error {
		var err error
		report, err = s.runJob(ctx, job)
		return err
	})
	return report, err
}

func (s *DigestScheduler) runJob(ctx context.Context, job string) (*RunReport, error) {
	switch job {
	case JobDailyReminder:
		return s.RunReminders(ctx)
	case JobTopPriorityDigest:
		return s.RunTopPriority(ctx)
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown digest job %q", job)).
			WithCode(pkgerrors.CodeUnknownJob)
	}
}

// RunReminders sends each user the schedules due on a reminder day
func (s *DigestScheduler) RunReminders(ctx context.Context) (*RunReport, error) {
	return s.run(ctx, JobDailyReminder, s.remindUser)
}

// RunTopPriority sends each user their highest priority schedules
func (s *DigestScheduler) RunTopPriority(ctx context.Context) (*RunReport, error) {
	return s.run(ctx, JobTopPriorityDigest, s.sendTopPriority)
}

// TopPriorityFor returns what the top-priority digest would hold for a user
func (s *DigestScheduler) TopPriorityFor(ctx context.Context, user *entities.User, limit int) ([]ports.RankedSchedule, error) {
	now := s.clock.Now()
	schedules, err := s.schedules.FindByOwner(ctx, s.topPriorityQuery(user.ID(), now))
	if err != nil {
		return nil, err
	}
	return s.ranker.TopN(user, schedules, now, limit), nil
}

// BatchStatistics pages through every user to report how a run would be
// split into batches.
func (s *DigestScheduler) BatchStatistics(ctx context.Context) (*BatchPlan, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	plan := &BatchPlan{
		TotalUsers:   total,
		BatchSize:    s.cfg.BatchSize,
		TotalBatches: utils.CeilDiv(total, s.cfg.BatchSize),
		BatchDelay:   s.cfg.BatchDelay,
	}
	for page := 0; page < plan.TotalBatches; page++ {
		users, err := s.users.FindPage(ctx, page, s.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		if len(users) == 0 {
			break
		}
		for _, u := range users {
			if u.HasEmail() {
				plan.UsersWithEmail++
			}
		}
	}
	if plan.TotalBatches > 1 {
		plan.EstimatedDuration = time.Duration(plan.TotalBatches-1) * s.cfg.BatchDelay
	}
	return plan, nil
}

// BatchPlan describes how the user population is paged by a run
type BatchPlan struct {
	TotalUsers        int
	UsersWithEmail    int
	BatchSize         int
	TotalBatches      int
	BatchDelay        time.Duration
	EstimatedDuration time.Duration
}

func (s *DigestScheduler) run(ctx context.Context, job string, process userJob) (*RunReport, error) {
	report := &RunReport{
		RunID:     valueobjects.NewRunID().String(),
		Job:       job,
		StartedAt: s.clock.Now(),
	}

	if s.locker != nil {
		lock, ok, err := s.locker.TryAcquire(ctx, "digest:"+job, s.cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Info("Digest job already running elsewhere, skipping", zap.String("job", job))
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("digest job %q is already running", job)).
				WithCode(pkgerrors.CodeJobAlreadyRunning)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release digest lock", zap.String("job", job), zap.Error(err))
			}
		}()
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "count users for %s", job)
	}
	report.TotalUsers = total
	pages := utils.CeilDiv(total, s.cfg.BatchSize)

	s.logger.Info("Digest run started",
		zap.String("job", job),
		zap.String("runID", report.RunID),
		zap.Int("totalUsers", total),
		zap.Int("batches", pages),
	)

	for page := 0; page < pages; page++ {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		nominal := s.cfg.BatchSize
		if remaining := total - page*s.cfg.BatchSize; remaining < nominal {
			nominal = remaining
		}

		outcome := s.processBatch(ctx, job, page, nominal, process)
		if outcome.empty {
			s.logger.Info("Empty page, ending run early", zap.String("job", job), zap.Int("page", page))
			break
		}
		report.Batches++
		report.add(outcome)

		if page < pages-1 {
			if err := s.sleep(ctx, s.cfg.BatchDelay); err != nil {
				report.Cancelled = true
				break
			}
		}
	}

	report.Duration = s.clock.Now().Sub(report.StartedAt)
	s.finish(ctx, report)
	return report, nil
}

// processBatch runs one page. A page that cannot be fetched or that panics
// counts its nominal size as failed and discards partial results.
func (s *DigestScheduler) processBatch(ctx context.Context, job string, page, nominal int, process userJob) (out batchOutcome) {
	batchFailed := func(reason string, fields ...zap.Field) batchOutcome {
		s.logger.Error("Digest batch failed",
			append([]zap.Field{
				zap.String("job", job),
				zap.Int("page", page),
				zap.Int("failedUsers", nominal),
				zap.String("reason", reason),
			}, fields...)...,
		)
		return batchOutcome{visited: nominal, failed: nominal}
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = batchFailed("panic", zap.Any("panic", rec))
		}
	}()

	users, err := s.users.FindPage(ctx, page, s.cfg.BatchSize)
	if err != nil {
		return batchFailed("page fetch", zap.Error(err))
	}
	if len(users) == 0 {
		return batchOutcome{empty: true}
	}

	for _, user := range users {
		if ctx.Err() != nil {
			break
		}
		out.visited++

		if !user.HasEmail() {
			out.skipped++
			out.succeeded++
			continue
		}

		dispatched, err := process(ctx, user)
		if err != nil {
			out.failed++
			s.logger.Warn("Digest delivery failed for user",
				zap.String("job", job),
				zap.String("userID", user.ID()),
				zap.Error(err),
			)
			continue
		}
		out.succeeded++
		if dispatched {
			out.dispatched++
		}
	}
	return out
}

func (s *DigestScheduler) remindUser(ctx context.Context, user *entities.User) (bool, error) {
	now := s.clock.Now()
	from := utils.StartOfDay(now, s.loc)
	to := from.AddDate(0, 0, s.cfg.ReminderWindowDays).Add(-time.Nanosecond)

	schedules, err := s.schedules.FindByOwner(ctx, ports.ScheduleQuery{
		OwnerID:   user.ID(),
		Statuses:  []entities.ScheduleStatus{entities.ScheduleActive},
		StartFrom: &from,
		StartTo:   &to,
	})
	if err != nil {
		return false, err
	}

	digest := s.ranker.SelectReminders(user, schedules, now)
	if digest.IsEmpty() {
		return false, nil
	}
	if err := s.mailer.SendReminderDigest(ctx, recipientOf(user), digest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *DigestScheduler) sendTopPriority(ctx context.Context, user *entities.User) (bool, error) {
	top, err := s.TopPriorityFor(ctx, user, s.cfg.TopPriorityCount)
	if err != nil {
		return false, err
	}
	if len(top) == 0 {
		return false, nil
	}
	if err := s.mailer.SendTopPriorityDigest(ctx, recipientOf(user), top); err != nil {
		return false, err
	}
	return true, nil
}

func (s *DigestScheduler) topPriorityQuery(userID string, now time.Time) ports.ScheduleQuery {
	from := utils.StartOfDay(now, s.loc)
	to := now.Add(s.cfg.TopPriorityLookahead)
	return ports.ScheduleQuery{
		OwnerID:   userID,
		Statuses:  []entities.ScheduleStatus{entities.ScheduleActive},
		StartFrom: &from,
		StartTo:   &to,
	}
}

func (s *DigestScheduler) finish(ctx context.Context, report *RunReport) {
	s.logger.Info("Digest run completed",
		zap.String("job", report.Job),
		zap.String("runID", report.RunID),
		zap.Int("visited", report.Visited),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("dispatched", report.Dispatched),
		zap.Int("batches", report.Batches),
		zap.Duration("duration", report.Duration),
		zap.Bool("cancelled", report.Cancelled),
	)

	if s.metrics != nil {
		s.metrics.RecordDigestRun(ctx, ports.DigestRunStats{
			Job:        report.Job,
			Visited:    report.Visited,
			Succeeded:  report.Succeeded,
			Failed:     report.Failed,
			Skipped:    report.Skipped,
			Dispatched: report.Dispatched,
			Batches:    report.Batches,
			Duration:   report.Duration,
		})
	}

	if s.publisher != nil {
		event := events.NewDigestRunCompleted(report.RunID, report.Job,
			report.Visited, report.Succeeded, report.Failed, report.Skipped, report.Dispatched,
			report.Duration, report.Cancelled, s.clock.Now())
		if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
			s.logger.Warn("Failed to publish digest run event", zap.String("runID", report.RunID), zap.Error(err))
		}
	}
}

func recipientOf(user *entities.User) ports.Recipient {
	return ports.Recipient{UserID: user.ID(), Name: user.Name(), Email: user.Email()}
}

// SleepContext waits for d unless ctx is done first
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
