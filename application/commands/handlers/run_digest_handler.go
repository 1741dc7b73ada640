package handlers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"priorify/application/commands"
	"priorify/application/services"
	pkgerrors "priorify/pkg/errors"
)

// DigestRunner runs digest jobs by name
type DigestRunner interface {
	RunJob(ctx context.Context, job string) (*services.RunReport, error)
	Jobs() []string
}

// RunDigestHandler starts digest jobs outside the request lifecycle. At most
// one manual run per job is in flight in this process. Runs outlive the
// request but stop when Cancel is called.
type RunDigestHandler struct {
	runner  DigestRunner
	logger  *zap.Logger
	mu      sync.Mutex
	running map[string]bool
	wg      sync.WaitGroup
	base    context.Context
	cancel  context.CancelFunc
}

// NewRunDigestHandler creates a new handler
func NewRunDigestHandler(runner DigestRunner, logger *zap.Logger) *RunDigestHandler {
	base, cancel := context.WithCancel(context.Background())
	return &RunDigestHandler{
		runner:  runner,
		logger:  logger,
		running: make(map[string]bool),
		base:    base,
		cancel:  cancel,
	}
}

// Handle validates the job name and starts the run in the background
func (h *RunDigestHandler) Handle(ctx context.Context, cmd commands.RunDigestCommand) error {
	if !h.known(cmd.Job) {
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown digest job %q", cmd.Job)).
			WithCode(pkgerrors.CodeUnknownJob)
	}

	if h.base.Err() != nil {
		return pkgerrors.NewUnavailableError("digest runner")
	}

	h.mu.Lock()
	if h.running[cmd.Job] {
		h.mu.Unlock()
		return pkgerrors.NewConflictError(fmt.Sprintf("digest job %q is already running", cmd.Job)).
			WithCode(pkgerrors.CodeJobAlreadyRunning)
	}
	h.running[cmd.Job] = true
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			h.mu.Lock()
			delete(h.running, cmd.Job)
			h.mu.Unlock()
		}()
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("Manual digest run panicked",
					zap.String("job", cmd.Job),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()

		report, err := h.runner.RunJob(h.base, cmd.Job)
		if err != nil {
			h.logger.Error("Manual digest run failed",
				zap.String("job", cmd.Job),
				zap.String("requestedBy", cmd.RequestedBy),
				zap.Error(err),
			)
			return
		}
		h.logger.Info("Manual digest run finished",
			zap.String("job", cmd.Job),
			zap.String("runID", report.RunID),
			zap.String("requestedBy", cmd.RequestedBy),
		)
	}()

	h.logger.Info("Manual digest run started", zap.String("job", cmd.Job), zap.String("requestedBy", cmd.RequestedBy))
	return nil
}

// Cancel stops in-flight runs between users and rejects new ones
func (h *RunDigestHandler) Cancel() {
	h.cancel()
}

// Wait blocks until every background run has finished
func (h *RunDigestHandler) Wait() {
	h.wg.Wait()
}

func (h *RunDigestHandler) known(job string) bool {
	for _, name := range h.runner.Jobs() {
		if name == job {
			return true
		}
	}
	return false
}
