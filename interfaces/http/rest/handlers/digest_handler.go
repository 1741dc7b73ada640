package handlers

import (
	"net/http"

	"priorify/application/commands"
	commandbus "priorify/application/commands/bus"
	"priorify/application/queries"
	querybus "priorify/application/queries/bus"
	"priorify/pkg/common"
	pkgerrors "priorify/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DigestHandler exposes the batch digest operations
type DigestHandler struct {
	base
}

// NewDigestHandler creates a new digest handler
func NewDigestHandler(commandBus *commandbus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *DigestHandler {
	return &DigestHandler{base{commandBus: commandBus, queryBus: queryBus, errs: errs, logger: logger}}
}

// RunDigestResponse acknowledges a started run
type RunDigestResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}

// RunDigest handles POST /digests/{job}/run. The run continues after the
// response is written.
func (h *DigestHandler) RunDigest(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	job := chi.URLParam(r, "job")

	if err := h.commandBus.Send(r.Context(), commands.RunDigestCommand{Job: job, RequestedBy: user.UserID}); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusAccepted, RunDigestResponse{Job: job, Status: "started"})
}

// GetBatchStatistics handles GET /digests/batch-stats
func (h *DigestHandler) GetBatchStatistics(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.user(w, r); !ok {
		return
	}
	h.ask(w, r, queries.GetBatchStatisticsQuery{})
}
