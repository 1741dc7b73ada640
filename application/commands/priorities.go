package commands

import (
	pkgerrors "priorify/pkg/errors"
)

// CategoryRank is one requested preference entry
type CategoryRank struct {
	Category string `json:"category" validate:"required,max=50"`
	Rank     int    `json:"rank" validate:"required,min=1"`
}

// SetPrioritiesCommand replaces both preference lists of a user
type SetPrioritiesCommand struct {
	UserID         string         `json:"-"`
	HighPriorities []CategoryRank `json:"highPriorities" validate:"dive"`
	LowPriorities  []CategoryRank `json:"lowPriorities" validate:"dive"`
}

// Validate implements bus.Command. List rules are checked by the handler.
func (c SetPrioritiesCommand) Validate() error {
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}
	return nil
}

// RunDigestCommand starts a digest job in the background
type RunDigestCommand struct {
	Job         string `json:"job"`
	RequestedBy string `json:"requestedBy"`
}

// Validate implements bus.Command
func (c RunDigestCommand) Validate() error {
	if c.Job == "" {
		return pkgerrors.NewValidationError("job is required").WithCode(pkgerrors.CodeUnknownJob)
	}
	return nil
}
