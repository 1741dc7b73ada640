package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"priorify/application/ports"
	pkgerrors "priorify/pkg/errors"
)

type job struct {
	name  string
	spec  string
	fn    ports.JobFunc
	entry cron.EntryID
}

// CronScheduler runs registered jobs on standard five field cron specs in a
// fixed time zone. A job never overlaps with itself.
type CronScheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	jobs    map[string]*job
	running map[string]bool
	ctx     context.Context
	cancel  context.CancelFunc
}

var _ ports.JobScheduler = (*CronScheduler)(nil)

// NewCronScheduler creates a scheduler firing in loc. timeout bounds a single
// run; zero means unbounded.
func NewCronScheduler(loc *time.Location, timeout time.Duration, logger *zap.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]*job),
		running: make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a job. Names are unique.
func (s *CronScheduler) Register(name, spec string, fn ports.JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("job %q already registered", name))
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid cron spec %q for job %q", spec, name)).WithCause(err)
	}

	j := &job{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.fire(j) })
	if err != nil {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid cron spec %q for job %q", spec, name)).WithCause(err)
	}
	j.entry = id
	s.jobs[name] = j

	s.logger.Info("Job registered", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// RunNow runs a registered job synchronously on the caller's context
func (s *CronScheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown job %q", name)).WithCode(pkgerrors.CodeUnknownJob)
	}
	return s.execute(ctx, j)
}

// Jobs returns the registered job names in order
func (s *CronScheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns when a job fires next. ok is false for unknown jobs or before
// Start.
func (s *CronScheduler) Next(name string) (next time.Time, ok bool) {
	s.mu.Lock()
	j, exists := s.jobs[name]
	s.mu.Unlock()
	if !exists {
		return time.Time{}, false
	}
	entry := s.cron.Entry(j.entry)
	if !entry.Valid() || entry.Next.IsZero() {
		return time.Time{}, false
	}
	return entry.Next, true
}

// Start begins firing jobs in the background
func (s *CronScheduler) Start() {
	s.logger.Info("Starting job scheduler", zap.Strings("jobs", s.Jobs()))
	s.cron.Start()
}

// Stop stops firing, cancels in-flight runs and waits for them or ctx
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping job scheduler")
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CronScheduler) fire(j *job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.execute(ctx, j); err != nil && !pkgerrors.IsConflict(err) {
		s.logger.Error("Scheduled job failed", zap.String("job", j.name), zap.Error(err))
	}
}

func (s *CronScheduler) execute(ctx context.Context, j *job) (err error) {
	s.mu.Lock()
	if s.running[j.name] {
		s.mu.Unlock()
		s.logger.Warn("Job still running, skipping", zap.String("job", j.name))
		return pkgerrors.NewConflictError(fmt.Sprintf("job %q is already running", j.name)).
			WithCode(pkgerrors.CodeJobAlreadyRunning)
	}
	s.running[j.name] = true
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = pkgerrors.NewInternalError(fmt.Sprintf("job %q panicked: %v", j.name, rec))
		}
		s.mu.Lock()
		delete(s.running, j.name)
		s.mu.Unlock()
		s.logger.Info("Job finished",
			zap.String("job", j.name),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("failed", err != nil),
		)
	}()

	s.logger.Info("Job started", zap.String("job", j.name))
	return j.fn(ctx)
}
