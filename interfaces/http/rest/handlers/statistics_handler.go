package handlers

import (
	"net/http"

	commandbus "priorify/application/commands/bus"
	"priorify/application/queries"
	querybus "priorify/application/queries/bus"
	"priorify/pkg/common"
	pkgerrors "priorify/pkg/errors"

	"go.uber.org/zap"
)

const defaultStatisticsDays = 7

// StatisticsHandler serves priority statistics
type StatisticsHandler struct {
	base
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(commandBus *commandbus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{base{commandBus: commandBus, queryBus: queryBus, errs: errs, logger: logger}}
}

// GetComprehensive handles GET /statistics/comprehensive?days=N
func (h *StatisticsHandler) GetComprehensive(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	days, err := common.IntQuery(r, "days", defaultStatisticsDays, 0, 366)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetStatisticsQuery{UserID: user.UserID, Days: days})
}

// GetCategory handles GET /statistics/category?days=N
func (h *StatisticsHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	days, err := common.IntQuery(r, "days", defaultStatisticsDays, 0, 366)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetCategoryStatisticsQuery{UserID: user.UserID, Days: days})
}
