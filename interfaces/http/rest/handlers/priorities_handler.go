package handlers

import (
	"net/http"

	"priorify/application/commands"
	commandbus "priorify/application/commands/bus"
	"priorify/application/queries"
	querybus "priorify/application/queries/bus"
	"priorify/pkg/common"
	pkgerrors "priorify/pkg/errors"

	"go.uber.org/zap"
)

// PrioritiesHandler serves the category preference lists
type PrioritiesHandler struct {
	base
}

// NewPrioritiesHandler creates a new priorities handler
func NewPrioritiesHandler(commandBus *commandbus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *PrioritiesHandler {
	return &PrioritiesHandler{base{commandBus: commandBus, queryBus: queryBus, errs: errs, logger: logger}}
}

// SetPrioritiesRequest is the body of PUT /priorities
type SetPrioritiesRequest struct {
	HighPriorities []commands.CategoryRank `json:"highPriorities"`
	LowPriorities  []commands.CategoryRank `json:"lowPriorities"`
}

// GetPriorities handles GET /priorities
func (h *PrioritiesHandler) GetPriorities(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	h.ask(w, r, queries.GetPrioritiesQuery{UserID: user.UserID})
}

// SetPriorities handles PUT /priorities and returns the stored lists
func (h *PrioritiesHandler) SetPriorities(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req SetPrioritiesRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	cmd := commands.SetPrioritiesCommand{
		UserID:         user.UserID,
		HighPriorities: req.HighPriorities,
		LowPriorities:  req.LowPriorities,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}

	h.logger.Info("Priorities updated",
		zap.String("userID", user.UserID),
		zap.Int("high", len(req.HighPriorities)),
		zap.Int("low", len(req.LowPriorities)),
	)
	h.ask(w, r, queries.GetPrioritiesQuery{UserID: user.UserID})
}
