package handlers

import (
	"net/http"

	commandbus "priorify/application/commands/bus"
	querybus "priorify/application/queries/bus"
	"priorify/pkg/auth"
	"priorify/pkg/common"
	pkgerrors "priorify/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 10

// base carries what every REST handler needs
type base struct {
	commandBus *commandbus.CommandBus
	queryBus   *querybus.QueryBus
	errs       *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// user returns the authenticated caller, writing a 401 when there is none
func (b *base) user(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		b.errs.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

// ask dispatches a query and writes its result or error
func (b *base) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := b.queryBus.Ask(r.Context(), query)
	if err != nil {
		b.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, result)
}
