package handlers

import (
	"net/http"

	commandbus "priorify/application/commands/bus"
	"priorify/application/queries"
	querybus "priorify/application/queries/bus"
	"priorify/pkg/common"
	pkgerrors "priorify/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ScheduleHandler serves ranked schedule views
type ScheduleHandler struct {
	base
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(commandBus *commandbus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{base{commandBus: commandBus, queryBus: queryBus, errs: errs, logger: logger}}
}

// ListSchedules handles GET /schedules
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.ListSchedulesQuery{UserID: user.UserID})
}

// GetGraph handles GET /schedules/graph?days=N. Zero days selects the
// configured default window.
func (h *ScheduleHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	days, err := common.IntQuery(r, "days", 0, 0, 366)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetScheduleGraphQuery{UserID: user.UserID, Days: days})
}

// GetTopPriority handles GET /schedules/top-priority?limit=N
func (h *ScheduleHandler) GetTopPriority(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	limit, err := common.IntQuery(r, "limit", 0, 0, 50)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetTopPrioritySchedulesQuery{UserID: user.UserID, Limit: limit})
}

// GetSimilar handles GET /schedules/{scheduleID}/similar
func (h *ScheduleHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.GetSimilarSchedulesQuery{
		UserID:     user.UserID,
		ScheduleID: chi.URLParam(r, "scheduleID"),
	})
}
