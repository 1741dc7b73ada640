package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/application/queries"
	"priorify/application/services"
	"priorify/domain/config"
	"priorify/domain/core/entities"
	pkgerrors "priorify/pkg/errors"
)

// GetScheduleGraphHandler builds the schedule graph of a user
type GetScheduleGraphHandler struct {
	users     ports.UserRepository
	schedules ports.ScheduleRepository
	builder   *services.GraphBuilder
	clock     ports.Clock
	cfg       config.GraphConfig
	logger    *zap.Logger
}

// NewGetScheduleGraphHandler creates a new graph handler
func NewGetScheduleGraphHandler(
	users ports.UserRepository,
	schedules ports.ScheduleRepository,
	builder *services.GraphBuilder,
	clock ports.Clock,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *GetScheduleGraphHandler {
	return &GetScheduleGraphHandler{
		users:     users,
		schedules: schedules,
		builder:   builder,
		clock:     clock,
		cfg:       cfg.Graph,
		logger:    logger,
	}
}

// Handle loads schedules starting within Days either side of now that are
// active or completed and assembles the graph.
func (h *GetScheduleGraphHandler) Handle(ctx context.Context, query queries.GetScheduleGraphQuery) (*queries.ScheduleGraphDTO, error) {
	days := query.Days
	if days == 0 {
		days = h.cfg.DefaultWindowDays
	}
	if days > h.cfg.MaxWindowDays {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("days cannot exceed %d", h.cfg.MaxWindowDays))
	}

	user, err := h.users.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	from := now.AddDate(0, 0, -days)
	to := now.AddDate(0, 0, days)
	schedules, err := h.schedules.FindByOwner(ctx, ports.ScheduleQuery{
		OwnerID:   user.ID(),
		Statuses:  []entities.ScheduleStatus{entities.ScheduleActive, entities.ScheduleCompleted},
		StartFrom: &from,
		StartTo:   &to,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Building schedule graph",
		zap.String("userID", user.ID()),
		zap.Int("days", days),
		zap.Int("schedules", len(schedules)),
	)

	return h.builder.Build(ctx, user, schedules, now), nil
}
