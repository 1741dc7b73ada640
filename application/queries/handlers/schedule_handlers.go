package handlers

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"priorify/application/ports"
	"priorify/application/queries"
	"priorify/application/services"
	"priorify/domain/config"
	"priorify/domain/core/entities"
	"priorify/domain/core/scoring"
	pkgerrors "priorify/pkg/errors"
)

// ListSchedulesHandler lists a user's active schedules with their priority
type ListSchedulesHandler struct {
	users         ports.UserRepository
	schedules     ports.ScheduleRepository
	engine        *scoring.Engine
	clock         ports.Clock
	uncategorized string
	loc           *time.Location
}

// NewListSchedulesHandler creates a new list handler
func NewListSchedulesHandler(
	users ports.UserRepository,
	schedules ports.ScheduleRepository,
	engine *scoring.Engine,
	clock ports.Clock,
	cfg *config.DomainConfig,
) *ListSchedulesHandler {
	return &ListSchedulesHandler{
		users:         users,
		schedules:     schedules,
		engine:        engine,
		clock:         clock,
		uncategorized: cfg.UncategorizedLabel,
		loc:           cfg.Location(),
	}
}

// Handle returns active schedules ordered by start time. Undated schedules
// come last.
func (h *ListSchedulesHandler) Handle(ctx context.Context, query queries.ListSchedulesQuery) (*queries.ListSchedulesResult, error) {
	user, err := h.users.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	schedules, err := h.schedules.FindByOwner(ctx, ports.ScheduleQuery{
		OwnerID:  user.ID(),
		Statuses: []entities.ScheduleStatus{entities.ScheduleActive},
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(schedules, func(i, j int) bool {
		a, b := schedules[i].StartAt, schedules[j].StartAt
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.Before(*b)
	})

	now := h.clock.Now()
	table := h.engine.WeightTable(user)
	items := make([]queries.ScheduleListItemDTO, 0, len(schedules))
	for _, s := range schedules {
		score := h.engine.ScoreBest(s, table, h.uncategorized, now)
		items = append(items, queries.NewScheduleListItemDTO(s, score.Priority, h.uncategorized, h.loc))
	}

	return &queries.ListSchedulesResult{Schedules: items, Total: len(items)}, nil
}

// TopPriorityPreviewer returns the schedules a top-priority digest would hold
type TopPriorityPreviewer interface {
	TopPriorityFor(ctx context.Context, user *entities.User, limit int) ([]ports.RankedSchedule, error)
}

// GetTopPriorityHandler previews the top-priority digest of a user
type GetTopPriorityHandler struct {
	users         ports.UserRepository
	previewer     TopPriorityPreviewer
	defaultLimit  int
	uncategorized string
	loc           *time.Location
}

// NewGetTopPriorityHandler creates a new top-priority handler
func NewGetTopPriorityHandler(users ports.UserRepository, previewer TopPriorityPreviewer, cfg *config.DomainConfig) *GetTopPriorityHandler {
	return &GetTopPriorityHandler{
		users:         users,
		previewer:     previewer,
		defaultLimit:  cfg.Digest.TopPriorityCount,
		uncategorized: cfg.UncategorizedLabel,
		loc:           cfg.Location(),
	}
}

// Handle returns the highest priority upcoming schedules
func (h *GetTopPriorityHandler) Handle(ctx context.Context, query queries.GetTopPrioritySchedulesQuery) (*queries.TopPriorityResult, error) {
	limit := query.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	user, err := h.users.FindByID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	ranked, err := h.previewer.TopPriorityFor(ctx, user, limit)
	if err != nil {
		return nil, err
	}

	items := make([]queries.ScheduleListItemDTO, len(ranked))
	for i, r := range ranked {
		items[i] = queries.NewScheduleListItemDTO(r.Schedule, r.Score.Priority, h.uncategorized, h.loc)
	}
	return &queries.TopPriorityResult{UserID: user.ID(), Schedules: items}, nil
}

// GetSimilarSchedulesHandler lists schedules related to one of the user's
type GetSimilarSchedulesHandler struct {
	schedules ports.ScheduleRepository
	linker    *services.SimilarityLinker
	logger    *zap.Logger
}

// NewGetSimilarSchedulesHandler creates a new similar-schedules handler
func NewGetSimilarSchedulesHandler(schedules ports.ScheduleRepository, linker *services.SimilarityLinker, logger *zap.Logger) *GetSimilarSchedulesHandler {
	return &GetSimilarSchedulesHandler{
		schedules: schedules,
		linker:    linker,
		logger:    logger,
	}
}

// Handle resolves the related schedules. A schedule of another owner is
// reported as not found.
func (h *GetSimilarSchedulesHandler) Handle(ctx context.Context, query queries.GetSimilarSchedulesQuery) (*queries.SimilarSchedulesResult, error) {
	schedule, err := h.schedules.FindByID(ctx, query.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.OwnerID != query.UserID {
		return nil, pkgerrors.NewScheduleNotFoundError(query.ScheduleID)
	}

	result := &queries.SimilarSchedulesResult{
		ScheduleID: schedule.ID,
		Similar:    []queries.SimilarScheduleDTO{},
	}

	matches := h.linker.FindSimilar(ctx, schedule)
	if len(matches) == 0 {
		return result, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ScheduleID
	}
	related, err := h.schedules.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.Schedule, len(related))
	for _, s := range related {
		byID[s.ID] = s
	}

	for _, m := range matches {
		s, ok := byID[m.ScheduleID]
		if !ok || s.OwnerID != query.UserID {
			h.logger.Debug("Similar schedule missing from store", zap.String("scheduleID", m.ScheduleID))
			continue
		}
		result.Similar = append(result.Similar, queries.SimilarScheduleDTO{
			ID:         s.ID,
			Title:      s.Title,
			Similarity: m.Score,
			Status:     string(s.Status),
		})
	}
	return result, nil
}
