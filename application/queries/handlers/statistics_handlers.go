package handlers

import (
	"context"
	"time"

	"priorify/application/ports"
	"priorify/application/queries"
	"priorify/application/services"
)

// GetPrioritiesHandler returns a user's category preferences
type GetPrioritiesHandler struct {
	users ports.UserRepository
}

// NewGetPrioritiesHandler creates a new priorities handler
func NewGetPrioritiesHandler(users ports.UserRepository) *GetPrioritiesHandler {
	return &GetPrioritiesHandler{users: users}
}

// Handle loads the user and maps both lists
func (h *GetPrioritiesHandler) Handle(ctx context.Context, query queries.GetPrioritiesQuery) (*queries.PriorityPreferencesDTO, error) {
	user, err := h.users.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	dto := queries.NewPriorityPreferencesDTO(user)
	return &dto, nil
}

// GetStatisticsHandler serves both statistics queries
type GetStatisticsHandler struct {
	users      ports.UserRepository
	statistics *services.StatisticsService
	clock      ports.Clock
}

// NewGetStatisticsHandler creates a new statistics handler
func NewGetStatisticsHandler(users ports.UserRepository, statistics *services.StatisticsService, clock ports.Clock) *GetStatisticsHandler {
	return &GetStatisticsHandler{users: users, statistics: statistics, clock: clock}
}

// Handle computes the comprehensive statistics
func (h *GetStatisticsHandler) Handle(ctx context.Context, query queries.GetStatisticsQuery) (*queries.StatisticsDTO, error) {
	user, err := h.users.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	return h.statistics.Comprehensive(ctx, user, query.Days, h.clock.Now())
}

// HandleCategories computes the per-category section
func (h *GetStatisticsHandler) HandleCategories(ctx context.Context, query queries.GetCategoryStatisticsQuery) (*queries.CategoryStatisticsResult, error) {
	user, err := h.users.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	stats, err := h.statistics.CategoryStatistics(ctx, user, query.Days, h.clock.Now())
	if err != nil {
		return nil, err
	}
	return &queries.CategoryStatisticsResult{CategoryStats: stats, Days: query.Days}, nil
}

// BatchPlanner reports how digest runs page through users
type BatchPlanner interface {
	BatchStatistics(ctx context.Context) (*services.BatchPlan, error)
	Jobs() []string
}

// GetBatchStatisticsHandler reports the digest population
type GetBatchStatisticsHandler struct {
	planner BatchPlanner
}

// NewGetBatchStatisticsHandler creates a new batch statistics handler
func NewGetBatchStatisticsHandler(planner BatchPlanner) *GetBatchStatisticsHandler {
	return &GetBatchStatisticsHandler{planner: planner}
}

// Handle maps the batch plan
func (h *GetBatchStatisticsHandler) Handle(ctx context.Context, _ queries.GetBatchStatisticsQuery) (*queries.BatchStatisticsDTO, error) {
	plan, err := h.planner.BatchStatistics(ctx)
	if err != nil {
		return nil, err
	}
	return &queries.BatchStatisticsDTO{
		TotalUsers:               plan.TotalUsers,
		UsersWithEmail:           plan.UsersWithEmail,
		UsersWithoutEmail:        plan.TotalUsers - plan.UsersWithEmail,
		BatchSize:                plan.BatchSize,
		TotalBatches:             plan.TotalBatches,
		BatchDelaySeconds:        seconds(plan.BatchDelay),
		EstimatedDurationSeconds: seconds(plan.EstimatedDuration),
		Jobs:                     h.planner.Jobs(),
	}, nil
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}
